package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leave-tracker/internal/model"
	"leave-tracker/pkg/sheet"
)

// TimestampLayout 表格 Timestamp 列的格式（UTC）
const TimestampLayout = "2006-01-02 15:04:05"

// ErrSheetSchema 表格表头缺少必需列
var ErrSheetSchema = errors.New("请假表格表头不完整")

// MissingHeadersError 列出缺失的表头
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return fmt.Sprintf("%s: 缺少列 %s", ErrSheetSchema.Error(), strings.Join(e.Missing, ", "))
}

func (e *MissingHeadersError) Unwrap() error { return ErrSheetSchema }

// SheetLeave 追加到表格的一条请假记录
type SheetLeave struct {
	Timestamp string // 为空时使用当前 UTC 时间
	Name      string
	LeaveType string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Note      string
	Code      string
}

// LeaveSheetRepository 请假表格访问接口
//
// 表格结构以实时表头为准：每次读取都按表头重新映射字段。
type LeaveSheetRepository interface {
	// Append 校验表头后追加一行，返回实际写入的记录（含 Timestamp）
	Append(ctx context.Context, leave *SheetLeave) (model.LeaveRecord, error)
	ListAll(ctx context.Context) ([]model.LeaveRecord, error)
	// ListByMonth month 为 YYYY-MM；开始或结束日期落在该月即命中
	ListByMonth(ctx context.Context, month string) ([]model.LeaveRecord, error)
	// Delete 按 Timestamp（及可选的 code）删除第一条匹配行，未找到返回 false
	Delete(ctx context.Context, timestamp, code string) (bool, error)
}

type leaveSheetRepo struct {
	backend      sheet.Backend
	strictDelete bool
	now          func() time.Time
}

// NewLeaveSheetRepo 创建 LeaveSheetRepository 实例
func NewLeaveSheetRepo(backend sheet.Backend, strictDelete bool) LeaveSheetRepository {
	return &leaveSheetRepo{
		backend:      backend,
		strictDelete: strictDelete,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (r *leaveSheetRepo) Append(ctx context.Context, leave *SheetLeave) (model.LeaveRecord, error) {
	header, err := r.backend.Header(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkHeaders(header); err != nil {
		return nil, err
	}

	ts := leave.Timestamp
	if ts == "" {
		ts = r.now().Format(TimestampLayout)
	}
	record := model.LeaveRecord{
		model.ColTimestamp: ts,
		model.ColName:      leave.Name,
		model.ColLeaveType: leave.LeaveType,
		model.ColStartDate: leave.StartDate,
		model.ColEndDate:   leave.EndDate,
		model.ColNote:      leave.Note,
		model.ColCode:      leave.Code,
	}

	row := make([]string, len(header))
	for i, h := range header {
		row[i] = record[h]
	}
	if err := r.backend.AppendRows(ctx, [][]string{row}); err != nil {
		return nil, err
	}

	written := make(model.LeaveRecord, len(header))
	for i, h := range header {
		written[h] = row[i]
	}
	return written, nil
}

func (r *leaveSheetRepo) ListAll(ctx context.Context) ([]model.LeaveRecord, error) {
	rows, err := r.backend.Values(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]model.LeaveRecord, 0, len(rows))
	if len(rows) == 0 {
		return records, nil
	}

	header := rows[0]
	for _, row := range rows[1:] {
		records = append(records, zipRow(header, row))
	}
	return records, nil
}

func (r *leaveSheetRepo) ListByMonth(ctx context.Context, month string) ([]model.LeaveRecord, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]model.LeaveRecord, 0)
	for _, rec := range all {
		if strings.HasPrefix(rec[model.ColStartDate], month) || strings.HasPrefix(rec[model.ColEndDate], month) {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (r *leaveSheetRepo) Delete(ctx context.Context, timestamp, code string) (bool, error) {
	rows, err := r.backend.Values(ctx)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	header := rows[0]
	tsIdx := indexOf(header, model.ColTimestamp)
	if tsIdx < 0 {
		return false, nil
	}
	codeIdx := indexOf(header, model.ColCode)

	for i, row := range rows[1:] {
		if cellAt(row, tsIdx) != timestamp {
			continue
		}
		if codeIdx >= 0 && !r.codeMatches(cellAt(row, codeIdx), code) {
			continue
		}
		// 表头占第 1 行，数据行从第 2 行开始
		if err := r.backend.DeleteRow(ctx, i+2); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// codeMatches 默认宽松匹配：任一侧 code 为空（旧数据没有 code）也视为命中
func (r *leaveSheetRepo) codeMatches(rowCode, code string) bool {
	if r.strictDelete {
		return rowCode == code
	}
	return rowCode == "" || code == "" || rowCode == code
}

func checkHeaders(header []string) error {
	var missing []string
	for _, h := range model.RequiredSheetHeaders {
		if indexOf(header, h) < 0 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return &MissingHeadersError{Missing: missing}
	}
	return nil
}

// zipRow 按位置将表头与数据行配对；短行缺少的列不出现在结果中
func zipRow(header, row []string) model.LeaveRecord {
	rec := make(model.LeaveRecord, len(header))
	for i, h := range header {
		if i >= len(row) {
			break
		}
		rec[h] = row[i]
	}
	return rec
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
