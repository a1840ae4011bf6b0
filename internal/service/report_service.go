package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"leave-tracker/config"
	"leave-tracker/internal/dto"
	"leave-tracker/internal/repository"
	"leave-tracker/pkg/sheet"
)

// ErrReportDisabled 未配置 HOSxP 数据库或目标表格
var ErrReportDisabled = errors.New("就诊报表任务未启用")

const (
	defaultReportChunk = 500
	// emptyReportWidth 查询无结果时清空的列数
	emptyReportWidth = 26
)

// ReportService 就诊报表推送
//
// 从 HOSxP 查询 since 至今的门诊记录，覆盖写入报表工作表（保留表头）。
type ReportService interface {
	PushVisits(ctx context.Context, since string) (*dto.ReportResponse, error)
}

type reportService struct {
	repo      *repository.Repository
	target    sheet.Backend
	chunkSize int
	logger    *zap.Logger
}

// NewReportService 创建 ReportService 实例；target 为 nil 时任务不可用
func NewReportService(cfg *config.ReportConfig, repo *repository.Repository, target sheet.Backend, logger *zap.Logger) ReportService {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = defaultReportChunk
	}
	return &reportService{repo: repo, target: target, chunkSize: chunk, logger: logger}
}

func (s *reportService) PushVisits(ctx context.Context, since string) (*dto.ReportResponse, error) {
	since = strings.TrimSpace(since)
	if _, err := time.Parse(dateLayout, since); err != nil {
		return nil, newValidationError("起始日期格式错误，应为 YYYY-MM-DD")
	}
	if s.repo.Visit == nil || s.target == nil {
		return nil, ErrReportDisabled
	}

	// 1. 查询
	rows, err := s.repo.Visit.ListSince(ctx, since)
	if err != nil {
		s.logger.Error("查询就诊记录失败", zap.String("since", since), zap.Error(err))
		return nil, err
	}

	// 2. 清空旧数据（保留表头）
	width := emptyReportWidth
	if len(rows) > 0 {
		width = len(rows[0])
	}
	if err := s.target.ClearBelowHeader(ctx, width); err != nil {
		s.logger.Error("清空报表工作表失败", zap.Error(err))
		return nil, err
	}

	// 3. 分块追加
	for i := 0; i < len(rows); i += s.chunkSize {
		end := i + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.target.AppendRows(ctx, rows[i:end]); err != nil {
			s.logger.Error("写入报表工作表失败", zap.Int("offset", i), zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("就诊报表推送完成", zap.String("since", since), zap.Int("rows", len(rows)))
	return &dto.ReportResponse{Rows: len(rows)}, nil
}
