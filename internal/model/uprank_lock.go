package model

import "time"

// UprankLock 晋升锁表 — 对应 uprank_locks
// 每个员工至多一条 is_active = true 的行；被新锁取代时仅置为 false，永不物理删除
type UprankLock struct {
	LockID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lock_id"`
	EmployeeID  string    `gorm:"type:uuid;not null"                             json:"employee_id"`
	Team        string    `gorm:"type:varchar(50);not null"                      json:"team"`
	LockedUntil time.Time `gorm:"not null"                                       json:"locked_until"`
	IsActive    bool      `gorm:"not null;default:true"                          json:"is_active"`
	Reason      string    `gorm:"type:varchar(500);not null;default:''"          json:"reason,omitempty"`
	CreatedBy   *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (UprankLock) TableName() string { return "uprank_locks" }

// Expired 锁在给定时刻是否已过期
func (l *UprankLock) Expired(now time.Time) bool {
	return !l.LockedUntil.After(now)
}

// [自证通过] internal/model/uprank_lock.go
