package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"leave-tracker/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoLeaves     = errors.New("暂无请假记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出数据库中的请假记录（含同步状态），用于与请假表格核对。
type ExportService interface {
	// ExportLeaves 返回 Excel 内容与建议文件名
	ExportLeaves(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

var exportHeaders = []string{"ID", "Timestamp (UTC)", "Name", "Leave Type", "Start Date", "End Date", "Note", "Code", "Sheet Synced", "Notified"}

func (s *exportService) ExportLeaves(ctx context.Context) (*bytes.Buffer, string, error) {
	leaves, err := s.repo.Leave.List(ctx)
	if err != nil {
		s.logger.Error("查询请假记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(leaves) == 0 {
		return nil, "", ErrExportNoLeaves
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaves"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "D", 18)
	f.SetColWidth(sheetName, "E", "F", 12)
	f.SetColWidth(sheetName, "G", "H", 36)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetSheetRow(sheetName, "A1", &exportHeaders)
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle)
	f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, l := range leaves {
		row := []interface{}{
			l.ID,
			l.Timestamp.UTC().Format(repository.TimestampLayout),
			l.Name,
			l.LeaveType,
			l.StartDate.Format(dateLayout),
			l.EndDate.Format(dateLayout),
			l.Note,
			l.Code,
			l.SheetSynced,
			l.Notified,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			s.logger.Error("写入 Excel 行失败", zap.Int("row", i+2), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("leaves_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}
