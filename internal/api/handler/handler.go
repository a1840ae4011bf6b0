package handler

import "leave-tracker/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Leave     *LeaveHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Leave:     NewLeaveHandler(svc.Leave, svc.Calendar, svc.Export),
		Dashboard: NewDashboardHandler(svc.Dashboard),
		Admin:     NewAdminHandler(svc.Leave, svc.Report),
	}
}
