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

// 考核相关错误
var (
	ErrAssessmentNotFound = errors.New("考核记录不存在")
	ErrDuplicateNumber    = errors.New("考核序号已存在")
	ErrInvalidKind        = errors.New("无效的考核类别")
)

// CoverageService 考核覆盖服务：合并视图读取、班级考核行直存与轻量完成路径
type CoverageService struct {
	repo   *repository.Repository
	access *AccessService
	logger *zap.Logger
}

// NewCoverageService 创建考核覆盖服务
func NewCoverageService(repo *repository.Repository, access *AccessService, logger *zap.Logger) *CoverageService {
	return &CoverageService{repo: repo, access: access, logger: logger}
}

// ListAssessments 读取作用域下作业与测验的合并视图：
// 班级考核行左连接计划条目元数据，再拼上学生侧评分摘要与逾期标记
func (s *CoverageService) ListAssessments(ctx context.Context, requester dto.Requester, classID, subjectID string) (*dto.ListAssessmentsResponse, error) {
	if err := s.access.RequireRead(ctx, requester, classID, subjectID); err != nil {
		return nil, err
	}

	assignments, err := s.listKind(ctx, model.KindAssignment, classID, subjectID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.listKind(ctx, model.KindQuiz, classID, subjectID)
	if err != nil {
		return nil, err
	}
	return &dto.ListAssessmentsResponse{
		ClassID:     classID,
		SubjectID:   subjectID,
		Assignments: assignments,
		Quizzes:     quizzes,
	}, nil
}

func (s *CoverageService) listKind(ctx context.Context, kind model.AssessmentKind, classID, subjectID string) ([]dto.AssessmentView, error) {
	rows, err := s.repo.ClassAssessment.ListForCoverage(ctx, kind, classID, subjectID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.repo.StudentAssessment.MarksSummaries(ctx, kind, classID, subjectID)
	if err != nil {
		return nil, err
	}
	summaryByNumber := make(map[int]model.MarksSummary, len(summaries))
	for _, summary := range summaries {
		summaryByNumber[summary.Number] = summary
	}

	now := time.Now()
	views := make([]dto.AssessmentView, 0, len(rows))
	for _, row := range rows {
		// 截止时间：班级行自身的 deadline 缺失时回退到关联条目的排期时间
		deadline := row.Deadline
		if deadline == nil {
			deadline = row.ScheduledFor
		}
		view := dto.AssessmentView{
			ID:          row.ID,
			Kind:        string(kind),
			PlanItemID:  row.PlanItemID,
			Number:      row.Number,
			Deadline:    deadline,
			Status:      row.Status,
			CompletedAt: row.CompletedAt,
		}
		name := row.Name
		view.Title = &name
		// 关联条目存在时以条目为准展示状态与元数据
		if row.PlanItemID != nil && row.PlanStatus != nil {
			view.Status = *row.PlanStatus
			if row.PlanTitle != nil {
				view.Title = row.PlanTitle
			}
			view.Description = row.PlanDescription
			view.Topic = row.PlanTopic
		} else if kind == model.KindQuiz {
			view.Topic = row.Description
		} else {
			view.Description = row.Description
		}
		view.IsOverdue = deadline != nil &&
			deadline.Before(now) &&
			view.Status != model.ItemStatusCovered

		// 无评分记录时最近更新时间回退到关联计划的更新时间
		view.UpdatedAt = row.PlanUpdatedAt
		if summary, ok := summaryByNumber[row.Number]; ok {
			view.TotalMarks = summary.TotalMarks
			view.StudentCount = &summary.StudentCount
			view.GradedCount = &summary.GradedCount
			view.UpdatedAt = summary.UpdatedAt
		}
		views = append(views, view)
	}
	return views, nil
}

// SaveAssessment 不经计划条目管线直接创建/更新班级考核行。
// 更新时序号不可变；创建时显式指定已占用的序号返回冲突；
// teacher_assignment_id 提供时必须属于该班级科目
func (s *CoverageService) SaveAssessment(ctx context.Context, requester dto.Requester, kind model.AssessmentKind, req *dto.SaveAssessmentRequest) (*dto.SaveAssessmentResponse, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if err := s.access.RequireManage(ctx, requester, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	if req.Status != "" && !model.ValidItemStatus(req.Status) {
		return nil, ErrInvalidItemStatus
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

	deadline := parseFlexibleTime(req.Deadline)
	if deadline == nil {
		deadline = parseFlexibleTime(req.ScheduledAt)
	}
	description := normalizeText(req.Description)
	if kind == model.KindQuiz && req.Topic != "" {
		description = normalizeText(req.Topic)
	}

	if req.ID != nil && *req.ID != "" {
		existing, err := s.repo.ClassAssessment.GetByID(ctx, kind, *req.ID, req.ClassID, req.SubjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAssessmentNotFound
			}
			return nil, err
		}
		updates := map[string]interface{}{
			"description": description,
			"deadline":    deadline,
		}
		if req.Title != "" {
			updates["name"] = req.Title
		}
		if req.Status != "" {
			updates["status"] = req.Status
		}
		if req.PlanItemID != nil {
			updates["plan_item_id"] = normalizeText(*req.PlanItemID)
		}
		if teacherUserID != nil {
			updates["teacher_user_id"] = teacherUserID
		}
		if err := s.repo.ClassAssessment.Update(ctx, kind, existing.ID, updates); err != nil {
			return nil, err
		}
		s.logger.Info("班级考核行已更新",
			zap.String("kind", string(kind)),
			zap.String("id", existing.ID))
		return &dto.SaveAssessmentResponse{ID: existing.ID, Number: existing.Number, Updated: true}, nil
	}

	number := req.Number
	if number > 0 {
		_, err := s.repo.ClassAssessment.GetByNumber(ctx, kind, req.ClassID, req.SubjectID, number)
		if err == nil {
			return nil, ErrDuplicateNumber
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		max, err := s.repo.ClassAssessment.MaxNumber(ctx, kind, req.ClassID, req.SubjectID)
		if err != nil {
			return nil, err
		}
		number = max + 1
	}

	status := model.ItemStatusScheduled
	if req.Status != "" {
		status = req.Status
	}
	row := &model.ClassAssessmentRow{
		ClassID:         req.ClassID,
		SubjectID:       req.SubjectID,
		Number:          number,
		Name:            req.Title,
		Description:     description,
		Deadline:        deadline,
		Status:          status,
		TeacherUserID:   teacherUserID,
		CreatedByUserID: &requester.UserID,
	}
	if req.PlanItemID != nil {
		row.PlanItemID = normalizeText(*req.PlanItemID)
	}
	if err := s.repo.ClassAssessment.Create(ctx, kind, row); err != nil {
		return nil, err
	}
	s.logger.Info("班级考核行已创建",
		zap.String("kind", string(kind)),
		zap.String("id", row.ID),
		zap.Int("number", number))
	return &dto.SaveAssessmentResponse{ID: row.ID, Number: number, Created: true}, nil
}

// Completion 轻量完成路径：不经条目保存管线，直接把班级考核行、
// 关联计划条目与学生镜像标记为目标状态。
// 状态缺省为 covered；完成时间缺省为当前时间；
// 状态为 covered 时对尚未评分的学生行补记 graded_at
func (s *CoverageService) Completion(ctx context.Context, requester dto.Requester, req *dto.CompletionRequest) (*dto.CompletionResponse, error) {
	kind := model.AssessmentKind(req.Kind)
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if err := s.access.RequireManage(ctx, requester, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}

	status := model.ItemStatusCovered
	if req.Status != "" && model.ValidItemStatus(req.Status) {
		status = req.Status
	}
	completedAt := time.Now()
	if parsed := parseFlexibleTime(req.CompletedAt); parsed != nil {
		completedAt = *parsed
	}

	var row *model.ClassAssessmentRow
	var err error
	switch {
	case req.PlanItemID != nil && *req.PlanItemID != "":
		row, err = s.repo.ClassAssessment.GetByPlanItem(ctx, kind, *req.PlanItemID)
	case req.Number != nil:
		row, err = s.repo.ClassAssessment.GetByNumber(ctx, kind, req.ClassID, req.SubjectID, *req.Number)
	default:
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	if row.ClassID != req.ClassID || row.SubjectID != req.SubjectID {
		return nil, ErrAssessmentNotFound
	}

	err = s.repo.Atomic.Transact(ctx, func(r *repository.Repository) error {
		var rowCompletedAt *time.Time
		if status == model.ItemStatusCovered {
			rowCompletedAt = &completedAt
		}
		err := r.ClassAssessment.Update(ctx, kind, row.ID, map[string]interface{}{
			"status":       status,
			"completed_at": rowCompletedAt,
		})
		if err != nil {
			return err
		}

		if row.PlanItemID != nil {
			// 顺延目标仅在目标状态为 deferred 时保留：已有值沿用，
			// 否则取条目原排期时间；其余状态一律清空
			var deferredTo *time.Time
			if status == model.ItemStatusDeferred {
				item, err := r.PlanItem.GetByID(ctx, *row.PlanItemID)
				if err != nil {
					return err
				}
				deferredTo = item.DeferredTo
				if deferredTo == nil {
					deferredTo = item.ScheduledFor
				}
			}
			err := r.PlanItem.Update(ctx, *row.PlanItemID, map[string]interface{}{
				"status":            status,
				"status_changed_at": completedAt,
				"deferred_to":       deferredTo,
				"updated_at":        time.Now(),
			})
			if err != nil {
				return err
			}
		}

		var gradedAt *time.Time
		if status == model.ItemStatusCovered {
			gradedAt = &completedAt
		}
		return r.StudentAssessment.UpdateCompletionByNumber(ctx, kind, req.ClassID, req.SubjectID, row.Number, status, gradedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("考核完成状态已更新",
		zap.String("kind", string(kind)),
		zap.String("id", row.ID),
		zap.String("status", status))
	return &dto.CompletionResponse{Status: status, CompletedAt: completedAt}, nil
}

// [自证通过] internal/service/coverage_service.go
