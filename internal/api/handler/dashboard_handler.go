package handler

import (
	"github.com/gin-gonic/gin"

	"leave-tracker/internal/service"
	"leave-tracker/pkg/response"
)

// DashboardHandler 请假看板 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Get 按月、按人统计
// GET /api/v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	result, err := h.dashboardSvc.Dashboard(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
