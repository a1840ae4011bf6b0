package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/service"
	"leave-tracker/pkg/response"
)

// UserHandler 用户管理（管理员）HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表
// GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// DeleteUser 删除用户
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ToggleAdmin 切换管理员权限
// POST /api/v1/admin/users/:id/toggle-admin
func (h *UserHandler) ToggleAdmin(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	user, err := h.userSvc.ToggleAdmin(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, user)
}

// ToggleVerified 切换邮箱验证状态
// POST /api/v1/admin/users/:id/toggle-verified
func (h *UserHandler) ToggleVerified(c *gin.Context) {
	user, err := h.userSvc.ToggleVerified(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 20002, "不能删除自己")
	case errors.Is(err, service.ErrUserSelfRoleChange):
		response.BadRequest(c, 20003, "不能修改自己的管理员权限")
	default:
		response.InternalError(c)
	}
}
