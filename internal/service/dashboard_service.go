package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
)

// DashboardService 请假看板统计
//
// 统计数据来源于请假表格，与列表接口看到的数据一致。
type DashboardService interface {
	SummaryByMonth(ctx context.Context) ([]dto.MonthSummary, error)
	SummaryByPerson(ctx context.Context) ([]dto.PersonSummary, error)
	// Dashboard 读取一次表格，同时返回两张统计表
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger}
}

func (s *dashboardService) SummaryByMonth(ctx context.Context) ([]dto.MonthSummary, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return summarizeByMonth(records), nil
}

func (s *dashboardService) SummaryByPerson(ctx context.Context) ([]dto.PersonSummary, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return summarizeByPerson(records), nil
}

func (s *dashboardService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{
		MonthlySummary: summarizeByMonth(records),
		PersonSummary:  summarizeByPerson(records),
	}, nil
}

func (s *dashboardService) records(ctx context.Context) ([]model.LeaveRecord, error) {
	records, err := s.repo.LeaveSheet.ListAll(ctx)
	if err != nil {
		s.logger.Error("读取请假表格失败", zap.Error(err))
		return nil, err
	}
	return records, nil
}

// summarizeByMonth 按开始日期所在月份计数，无法解析的记录跳过，月份升序
func summarizeByMonth(records []model.LeaveRecord) []dto.MonthSummary {
	counts := make(map[string]int)
	for _, rec := range records {
		if month, ok := startMonth(rec[model.ColStartDate]); ok {
			counts[month]++
		}
	}

	result := make([]dto.MonthSummary, 0, len(counts))
	for month, total := range counts {
		result = append(result, dto.MonthSummary{Month: month, Total: total})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result
}

// summarizeByPerson 按姓名计数，次数降序；次数相同按姓名升序
func summarizeByPerson(records []model.LeaveRecord) []dto.PersonSummary {
	counts := make(map[string]int)
	for _, rec := range records {
		name := strings.TrimSpace(rec[model.ColName])
		if name == "" {
			continue
		}
		counts[name]++
	}

	result := make([]dto.PersonSummary, 0, len(counts))
	for name, total := range counts {
		result = append(result, dto.PersonSummary{Name: name, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// startMonth 取开始日期的 YYYY-MM，兼容手工录入的 2025-6-1 这类不补零写法
func startMonth(start string) (string, bool) {
	start = strings.TrimSpace(start)
	if d, err := time.Parse(looseDateLayout, start); err == nil {
		return d.Format(monthLayout), true
	}
	if len(start) < 7 {
		return "", false
	}
	if _, err := time.Parse(monthLayout, start[:7]); err != nil {
		return "", false
	}
	return start[:7], true
}
