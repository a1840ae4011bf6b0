// Package sheet 封装单个工作表的行级读写。
//
// 工作表的第一行为表头，数据行从第 2 行开始；行号均为 1-based 的绝对行号。
// 生产环境使用 Google Sheets，本地开发与测试使用 excelize 工作簿。
package sheet

import (
	"context"
	"errors"

	"github.com/xuri/excelize/v2"
)

// ErrRowOutOfRange 行号超出工作表范围
var ErrRowOutOfRange = errors.New("行号超出工作表范围")

// Backend 工作表读写接口
type Backend interface {
	// Values 返回全部非空行（含表头），每行按单元格显示值返回
	Values(ctx context.Context) ([][]string, error)
	// Header 返回第一行
	Header(ctx context.Context) ([]string, error)
	// AppendRows 在末尾追加多行，值按用户输入方式解析（日期、数字自动识别）
	AppendRows(ctx context.Context, rows [][]string) error
	// DeleteRow 删除指定绝对行号的整行
	DeleteRow(ctx context.Context, row int) error
	// RowCount 工作表当前的行数
	RowCount(ctx context.Context) (int, error)
	// ClearBelowHeader 清空第 2 行起、前 width 列的内容，保留表头
	ClearBelowHeader(ctx context.Context, width int) error
}

// ColumnLetter 1 → A, 26 → Z, 27 → AA
func ColumnLetter(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}
