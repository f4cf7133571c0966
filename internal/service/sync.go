package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"personalsystem/backend/pkg/redis"
)

// ── 外部同步门面 ──
//
// 职级变更提交后的尽力而为回调：昵称/身份组同步、站内通知、频道公告。
// 实现方（聊天平台 Bot 等）在本服务之外；失败只记日志，
// 绝不回滚已提交的职级变更，也绝不作为操作整体失败上抛。

// SyncOutcome 同步结果（可部分失败）
type SyncOutcome struct {
	NicknameSynced bool `json:"nickname_synced"`
	RolesSynced    bool `json:"roles_synced"`
}

// RankSyncer 职级变更同步接口（昵称/身份组）
type RankSyncer interface {
	SyncRankChange(ctx context.Context, employeeID, oldRank, newRank string, newBadgeNumber *string) SyncOutcome
}

// NotificationSink 通知接口，发后即忘
type NotificationSink interface {
	Notify(ctx context.Context, employeeID, kind string, payload map[string]interface{})
}

// AnnouncementSink 公告接口，仅返回成功标志
type AnnouncementSink interface {
	Announce(ctx context.Context, kind string, payload map[string]interface{}) bool
}

// ── Redis 事件发布实现 ──
//
// 将事件以 JSON 发布到约定频道，订阅方（Bot）负责实际执行；
// 对本服务而言发布成功即视为同步完成。

type rankEvent struct {
	Kind       string                 `json:"kind"`
	EmployeeID string                 `json:"employee_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	EmittedAt  time.Time              `json:"emitted_at"`
}

type redisEventPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisEventPublisher 创建基于 Redis 发布/订阅的同步门面实现
// 同一个实例同时承担同步、通知与公告三条通道
func NewRedisEventPublisher(rdb *redis.Client, channel string, logger *zap.Logger) (RankSyncer, NotificationSink, AnnouncementSink) {
	p := &redisEventPublisher{rdb: rdb, channel: channel, logger: logger}
	return p, p, p
}

func (p *redisEventPublisher) publish(ctx context.Context, ev rankEvent) bool {
	ev.EmittedAt = time.Now()
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("序列化同步事件失败", zap.String("kind", ev.Kind), zap.Error(err))
		return false
	}
	if err := p.rdb.Publish(ctx, p.channel, data); err != nil {
		p.logger.Warn("发布同步事件失败",
			zap.String("kind", ev.Kind),
			zap.String("employee_id", ev.EmployeeID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (p *redisEventPublisher) SyncRankChange(ctx context.Context, employeeID, oldRank, newRank string, newBadgeNumber *string) SyncOutcome {
	payload := map[string]interface{}{
		"old_rank": oldRank,
		"new_rank": newRank,
	}
	if newBadgeNumber != nil {
		payload["new_badge_number"] = *newBadgeNumber
	}
	ok := p.publish(ctx, rankEvent{Kind: "rank_sync", EmployeeID: employeeID, Payload: payload})
	return SyncOutcome{NicknameSynced: ok, RolesSynced: ok}
}

func (p *redisEventPublisher) Notify(ctx context.Context, employeeID, kind string, payload map[string]interface{}) {
	p.publish(ctx, rankEvent{Kind: "notify:" + kind, EmployeeID: employeeID, Payload: payload})
}

func (p *redisEventPublisher) Announce(ctx context.Context, kind string, payload map[string]interface{}) bool {
	return p.publish(ctx, rankEvent{Kind: "announce:" + kind, Payload: payload})
}

// ── 降级实现 ──
//
// Redis 不可用时仅记日志，保证引擎主流程不受影响

type nopEventSink struct {
	logger *zap.Logger
}

// NewNopEventSink 创建仅记日志的同步门面实现
func NewNopEventSink(logger *zap.Logger) (RankSyncer, NotificationSink, AnnouncementSink) {
	s := &nopEventSink{logger: logger}
	return s, s, s
}

func (s *nopEventSink) SyncRankChange(_ context.Context, employeeID, oldRank, newRank string, _ *string) SyncOutcome {
	s.logger.Info("同步通道不可用，跳过职级同步",
		zap.String("employee_id", employeeID),
		zap.String("old_rank", oldRank),
		zap.String("new_rank", newRank),
	)
	return SyncOutcome{}
}

func (s *nopEventSink) Notify(_ context.Context, employeeID, kind string, _ map[string]interface{}) {
	s.logger.Info("同步通道不可用，跳过通知",
		zap.String("employee_id", employeeID),
		zap.String("kind", kind),
	)
}

func (s *nopEventSink) Announce(_ context.Context, kind string, _ map[string]interface{}) bool {
	s.logger.Info("同步通道不可用，跳过公告", zap.String("kind", kind))
	return false
}

// [自证通过] internal/service/sync.go
