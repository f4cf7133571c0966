package model

// ── 用户角色 ──

const (
	RoleAdmin   = "admin"   // 管理员：全部能力
	RoleManager = "manager" // 人事主管：rank.change / rank.approve
	RoleMember  = "member"  // 普通操作员：只读
)

// User 用户表 — 对应 users（系统操作员账号，由管理员开设）
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Username     string `gorm:"type:varchar(50);not null"                      json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
