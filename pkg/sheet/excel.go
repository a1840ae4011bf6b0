package sheet

import (
	"context"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"
)

// ExcelBackend 基于本地 .xlsx 文件的工作表实现
// path 为空时只保存在内存中（测试使用）
type ExcelBackend struct {
	mu    sync.Mutex
	file  *excelize.File
	sheet string
	path  string
}

// OpenExcel 打开（或新建）工作簿；header 仅在新建时写入
func OpenExcel(path, sheetName string, header []string) (*ExcelBackend, error) {
	var (
		f   *excelize.File
		err error
	)
	if path != "" {
		f, err = excelize.OpenFile(path)
	}
	if path == "" || err != nil {
		f = excelize.NewFile()
		if sheetName == "" {
			sheetName = f.GetSheetName(0)
		} else if sheetName != f.GetSheetName(0) {
			if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
				return nil, fmt.Errorf("创建工作表失败: %w", err)
			}
		}
		if len(header) > 0 {
			if err := f.SetSheetRow(sheetName, "A1", toCells(header)); err != nil {
				return nil, fmt.Errorf("写入表头失败: %w", err)
			}
		}
	}
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("工作表 %q 不存在", sheetName)
	}

	b := &ExcelBackend{file: f, sheet: sheetName, path: path}
	if err := b.save(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *ExcelBackend) Values(_ context.Context) ([][]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows()
}

func (b *ExcelBackend) Header(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.rows()
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (b *ExcelBackend) AppendRows(_ context.Context, rows [][]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.rows()
	if err != nil {
		return err
	}
	next := len(existing) + 1
	for _, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, next)
		if err := b.file.SetSheetRow(b.sheet, cell, toCells(row)); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", next, err)
		}
		next++
	}
	return b.save()
}

func (b *ExcelBackend) DeleteRow(_ context.Context, row int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.rows()
	if err != nil {
		return err
	}
	if row < 1 || row > len(existing) {
		return ErrRowOutOfRange
	}
	if err := b.file.RemoveRow(b.sheet, row); err != nil {
		return fmt.Errorf("删除第 %d 行失败: %w", row, err)
	}
	return b.save()
}

func (b *ExcelBackend) RowCount(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.rows()
	return len(rows), err
}

func (b *ExcelBackend) ClearBelowHeader(_ context.Context, _ int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.rows()
	if err != nil {
		return err
	}
	// 从末尾往前删，避免行号移动
	for r := len(rows); r >= 2; r-- {
		if err := b.file.RemoveRow(b.sheet, r); err != nil {
			return fmt.Errorf("清空第 %d 行失败: %w", r, err)
		}
	}
	return b.save()
}

// Close 关闭工作簿
func (b *ExcelBackend) Close() error {
	return b.file.Close()
}

func (b *ExcelBackend) rows() ([][]string, error) {
	rows, err := b.file.GetRows(b.sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	// GetRows 会保留中间的空行，去掉末尾的空行
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

func (b *ExcelBackend) save() error {
	if b.path == "" {
		return nil
	}
	if err := b.file.SaveAs(b.path); err != nil {
		return fmt.Errorf("保存工作簿失败: %w", err)
	}
	return nil
}

func toCells(row []string) *[]interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &cells
}
