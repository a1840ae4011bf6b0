package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/service"
	"leave-tracker/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register 注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Created(c, result)
}

// VerifyEmail 邮件中的验证链接
// GET /api/v1/auth/verify/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.authSvc.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, result)
}

// Logout 用户登出
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// ForgotPassword 发送重置密码邮件
// POST /api/v1/auth/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if err := h.authSvc.ForgotPassword(c.Request.Context(), &req); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// OpenResetLink 邮件中的重置链接：校验令牌后跳转前端页面，未配置前端时返回令牌
// GET /api/v1/auth/reset/:token
func (h *AuthHandler) OpenResetLink(c *gin.Context) {
	token := c.Param("token")
	target, err := h.authSvc.CheckResetToken(c.Request.Context(), token)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if target != "" {
		c.Redirect(http.StatusFound, target)
		return
	}
	response.OK(c, gin.H{"token": token})
}

// ResetPassword 通过重置链接设置新密码
// POST /api/v1/auth/reset/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if err := h.authSvc.ResetPassword(c.Request.Context(), c.Param("token"), &req); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// DeleteAccount 注销自己的账号
// DELETE /api/v1/auth/me
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.authSvc.DeleteAccount(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}
	// 账号已删除，当前 Token 同时作废
	jti, exp := tokenInfo(c)
	_ = h.authSvc.Logout(c.Request.Context(), jti, exp)
	response.OK(c, nil)
}

func (h *AuthHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "用户名或密码错误")
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Forbidden(c, 11002, "邮箱尚未验证，请先点击邮件中的链接")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 11003, "用户名已存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11004, "邮箱已注册")
	case errors.Is(err, service.ErrInvalidToken):
		response.BadRequest(c, 11005, "链接无效或已过期")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
