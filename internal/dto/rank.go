package dto

// ── 职级变更 DTO ──

// TransitionRequest 直接晋升/降职请求
type TransitionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ApplyRankRequest 指定目标职级的变更请求（审批通过路径可跨级）
type ApplyRankRequest struct {
	TargetRank string `json:"target_rank" binding:"required,max=100"`
	Reason     string `json:"reason"      binding:"omitempty,max=500"`
}

// TransitionResponse 职级变更结果响应
type TransitionResponse struct {
	EmployeeID  string  `json:"employee_id"`
	OldRank     string  `json:"old_rank"`
	OldLevel    int     `json:"old_level"`
	NewRank     string  `json:"new_rank"`
	NewLevel    int     `json:"new_level"`
	TeamChanged bool    `json:"team_changed"`
	BadgeNumber *string `json:"badge_number,omitempty"` // 仅梯队变更时重新分配
}

// LockResponse 晋升锁响应
type LockResponse struct {
	LockID      string `json:"lock_id"`
	EmployeeID  string `json:"employee_id"`
	Team        string `json:"team"`
	LockedUntil string `json:"locked_until"`
	IsActive    bool   `json:"is_active"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ArchiveResponse 晋升档案响应
type ArchiveResponse struct {
	ArchiveID    string `json:"archive_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	OldRank      string `json:"old_rank"`
	OldRankLevel int    `json:"old_rank_level"`
	NewRank      string `json:"new_rank"`
	NewRankLevel int    `json:"new_rank_level"`
	Reason       string `json:"reason,omitempty"`
	PromotedAt   string `json:"promoted_at"`
}

// [自证通过] internal/dto/rank.go
