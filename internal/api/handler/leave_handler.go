package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/model"
	"leave-tracker/internal/service"
	"leave-tracker/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LeaveHandler 请假模块 HTTP 处理器
//
// 提交、列表、删除接口的成功响应保持前端页面使用的原始结构。
type LeaveHandler struct {
	leaveSvc    service.LeaveService
	calendarSvc service.CalendarService
	exportSvc   service.ExportService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService, calendarSvc service.CalendarService, exportSvc service.ExportService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc, calendarSvc: calendarSvc, exportSvc: exportSvc}
}

// Submit 提交请假
// POST /api/v1/leaves  (application/x-www-form-urlencoded)
func (h *LeaveHandler) Submit(c *gin.Context) {
	var form dto.LeaveForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if _, err := h.leaveSvc.Submit(c.Request.Context(), &form); err != nil {
		handleLeaveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// List 表格中的全部请假记录，键为表头列名
// GET /api/v1/leaves
func (h *LeaveHandler) List(c *gin.Context) {
	records, err := h.leaveSvc.ListAll(c.Request.Context())
	if err != nil {
		handleLeaveError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(records))
}

// ListByMonth 按月过滤
// GET /api/v1/leaves/calendar?month=YYYY-MM
func (h *LeaveHandler) ListByMonth(c *gin.Context) {
	records, err := h.leaveSvc.ListByMonth(c.Request.Context(), c.Query("month"))
	if err != nil {
		handleLeaveError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(records))
}

// Delete 按时间戳与 code 删除表格记录
// POST /api/v1/leaves/delete
func (h *LeaveHandler) Delete(c *gin.Context) {
	var req dto.DeleteLeaveRequest
	// 请求体缺失或格式错误按空条件处理，返回 success=false
	_ = c.ShouldBindJSON(&req)

	ok, err := h.leaveSvc.Delete(c.Request.Context(), &req)
	if err != nil {
		handleLeaveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

// CalendarFeed 月度 iCalendar 订阅
// GET /api/v1/leaves/calendar.ics?month=YYYY-MM
func (h *LeaveHandler) CalendarFeed(c *gin.Context) {
	feed, err := h.calendarSvc.MonthFeed(c.Request.Context(), c.Query("month"))
	if err != nil {
		handleLeaveError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=leaves-"+c.Query("month")+".ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// Export 导出数据库中的请假记录
// GET /api/v1/leaves/export
func (h *LeaveHandler) Export(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportLeaves(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExportNoLeaves):
			response.NotFound(c, 30101, "暂无请假记录")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleLeaveError 校验错误 400，其余 500
func handleLeaveError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		response.BadRequest(c, 30001, ve.Message)
		return
	}
	response.InternalError(c)
}

func nonNil(records []model.LeaveRecord) []model.LeaveRecord {
	if records == nil {
		return []model.LeaveRecord{}
	}
	return records
}
