package dto

// ── 请假模块 DTO ──

// LeaveForm 请假提交表单（application/x-www-form-urlencoded）
//
// 字段只做绑定，格式与区间校验由 LeaveService 完成，
// 以便在写入任一存储之前统一返回校验信息。
type LeaveForm struct {
	Name      string `form:"name"`
	LeaveType string `form:"leave_type"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Note      string `form:"note"`
}

// DeleteLeaveRequest 按表格时间戳删除一条记录
type DeleteLeaveRequest struct {
	Timestamp string `json:"timestamp"`
	Code      string `json:"code"`
}

// SubmitResult 一次提交在各下游的结果
type SubmitResult struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	SheetSynced bool   `json:"sheet_synced"`
	Notified    bool   `json:"notified"`
}

// LeaveResponse 数据库中的请假记录
type LeaveResponse struct {
	ID          uint   `json:"id"`
	Timestamp   string `json:"timestamp"`
	Name        string `json:"name"`
	LeaveType   string `json:"leave_type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Note        string `json:"note"`
	Code        string `json:"code"`
	SheetSynced bool   `json:"sheet_synced"`
	Notified    bool   `json:"notified"`
}

// ResyncResponse 补写表格的结果
type ResyncResponse struct {
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// ── 看板 ──

// MonthSummary 按月统计
type MonthSummary struct {
	Month string `json:"month"`
	Total int    `json:"total"`
}

// PersonSummary 按人统计
type PersonSummary struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// DashboardResponse 看板数据
type DashboardResponse struct {
	MonthlySummary []MonthSummary  `json:"monthly_summary"`
	PersonSummary  []PersonSummary `json:"person_summary"`
}

// ── 就诊报表 ──

// ReportRequest 推送就诊报表请求
type ReportRequest struct {
	Since string `json:"since" binding:"required"`
}

// ReportResponse 推送就诊报表结果
type ReportResponse struct {
	Rows int `json:"rows"`
}
