package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
)

// CalendarService 请假日历订阅（iCalendar）
type CalendarService interface {
	// MonthFeed 生成指定月份（YYYY-MM）的 .ics 内容
	MonthFeed(ctx context.Context, month string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger, now: time.Now}
}

func (s *calendarService) MonthFeed(ctx context.Context, month string) (string, error) {
	month = strings.TrimSpace(month)
	if _, err := time.Parse(monthLayout, month); err != nil {
		return "", newValidationError("月份格式错误，应为 YYYY-MM")
	}
	records, err := s.repo.LeaveSheet.ListByMonth(ctx, month)
	if err != nil {
		s.logger.Error("读取请假表格失败", zap.String("month", month), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//leave-tracker//leaves//TH")
	cal.SetXWRCalName("Leaves " + month)

	stamp := s.now().UTC()
	for _, rec := range records {
		start, err := time.Parse(dateLayout, strings.TrimSpace(rec[model.ColStartDate]))
		if err != nil {
			continue
		}
		end, err := time.Parse(dateLayout, strings.TrimSpace(rec[model.ColEndDate]))
		if err != nil || end.Before(start) {
			end = start
		}

		event := cal.AddEvent(eventUID(rec))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(start)
		// DTEND 为不包含的次日
		event.SetAllDayEndAt(end.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s (%s)", rec[model.ColName], rec[model.ColLeaveType]))
		if note := rec[model.ColNote]; note != "" {
			event.SetDescription(note)
		}
	}
	return cal.Serialize(), nil
}

// eventUID 优先使用 code；旧数据按时间戳和姓名拼接
func eventUID(rec model.LeaveRecord) string {
	if code := rec[model.ColCode]; code != "" {
		return code + "@leave-tracker"
	}
	ts := strings.NewReplacer(" ", "T", ":", "", "-", "").Replace(rec[model.ColTimestamp])
	return fmt.Sprintf("%s-%s@leave-tracker", ts, strings.ReplaceAll(rec[model.ColName], " ", "_"))
}
