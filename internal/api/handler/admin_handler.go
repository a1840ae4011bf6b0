package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/repository"
	"leave-tracker/internal/service"
	"leave-tracker/pkg/response"
)

// AdminHandler 运维类操作：表格补写、就诊报表推送
type AdminHandler struct {
	leaveSvc  service.LeaveService
	reportSvc service.ReportService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(leaveSvc service.LeaveService, reportSvc service.ReportService) *AdminHandler {
	return &AdminHandler{leaveSvc: leaveSvc, reportSvc: reportSvc}
}

// ListLeaveRecords 数据库中的请假记录及投递状态
// GET /api/v1/admin/leaves
func (h *AdminHandler) ListLeaveRecords(c *gin.Context) {
	records, err := h.leaveSvc.Records(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, records)
}

// ResyncLeaves 将未写入表格的数据库记录补写到表格
// POST /api/v1/admin/leaves/resync
func (h *AdminHandler) ResyncLeaves(c *gin.Context) {
	result, err := h.leaveSvc.Resync(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrSheetSchema) {
			response.Error(c, http.StatusInternalServerError, 30002, err.Error())
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// PushVisitReport 推送就诊报表
// POST /api/v1/admin/reports/visits
func (h *AdminHandler) PushVisitReport(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reportSvc.PushVisits(c.Request.Context(), req.Since)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			response.BadRequest(c, 30001, ve.Message)
		case errors.Is(err, service.ErrReportDisabled):
			response.ServiceUnavailable(c, 50301, "就诊报表任务未启用")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}
