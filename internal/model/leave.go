package model

import "time"

// NoteMaxLen 备注最大长度（字符）
const NoteMaxLen = 100

// Leave 请假记录表 — 对应 leaves
//
// timestamp 由数据库在插入时生成（UTC）；sheet_synced / notified
// 记录同一次提交在表格与通知两个下游的投递结果，供对账重放使用。
type Leave struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"                                              json:"id"`
	Timestamp   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_leave_timestamp_desc,sort:desc" json:"timestamp"`
	Name        string    `gorm:"type:varchar(100);not null;index:ix_leave_name_dates,priority:1"        json:"name"`
	LeaveType   string    `gorm:"type:varchar(50);not null"                                             json:"leave_type"`
	StartDate   time.Time `gorm:"type:date;not null;index:ix_leave_name_dates,priority:2"               json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null;index:ix_leave_name_dates,priority:3;check:ck_leave_date_range,start_date <= end_date" json:"end_date"`
	Note        string    `gorm:"type:varchar(100);not null;default:''"                                 json:"note"`
	Code        string    `gorm:"type:varchar(36);not null;default:''"                                  json:"code"`
	SheetSynced bool      `gorm:"not null;default:false"                                                json:"sheet_synced"`
	Notified    bool      `gorm:"not null;default:false"                                                json:"notified"`
}

// TableName 指定表名
func (Leave) TableName() string { return "leaves" }

// LeaveRecord 请假表格中的一行，键为实时表头中的列名
type LeaveRecord map[string]string

// 表格列名
const (
	ColTimestamp = "Timestamp"
	ColName      = "Name"
	ColLeaveType = "Leave Type"
	ColStartDate = "Start Date"
	ColEndDate   = "End Date"
	ColNote      = "Note"
	ColCode      = "code"
)

// RequiredSheetHeaders 追加记录前表头必须包含的列
var RequiredSheetHeaders = []string{ColTimestamp, ColName, ColLeaveType, ColStartDate, ColEndDate, ColNote}

// DefaultSheetHeaders 新建表格时写入的表头
var DefaultSheetHeaders = []string{ColTimestamp, ColName, ColLeaveType, ColStartDate, ColEndDate, ColNote, ColCode}
