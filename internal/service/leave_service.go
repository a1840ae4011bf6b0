package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"

	looseDateLayout = "2006-1-2"

	nameMaxLen      = 100
	leaveTypeMaxLen = 50

	// resyncBatchSize 单次补写表格的最大行数
	resyncBatchSize = 500
)

// LeaveService 请假业务接口
type LeaveService interface {
	// Submit 依次写入表格、数据库并发送通知；只有数据库结果决定返回值
	Submit(ctx context.Context, form *dto.LeaveForm) (*dto.SubmitResult, error)
	ListAll(ctx context.Context) ([]model.LeaveRecord, error)
	ListByMonth(ctx context.Context, month string) ([]model.LeaveRecord, error)
	Delete(ctx context.Context, req *dto.DeleteLeaveRequest) (bool, error)
	// Records 数据库中的全部记录及其投递状态，用于对账
	Records(ctx context.Context) ([]dto.LeaveResponse, error)
	// Resync 将 sheet_synced=false 的数据库记录补写到表格
	Resync(ctx context.Context) (*dto.ResyncResponse, error)
}

type leaveService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *leaveService) Submit(ctx context.Context, form *dto.LeaveForm) (*dto.SubmitResult, error) {
	// 1. 校验：任一存储写入之前完成
	leave, err := buildLeave(form)
	if err != nil {
		return nil, err
	}
	leave.Code = uuid.NewString()
	log := s.logger.With(zap.String("code", leave.Code), zap.String("name", leave.Name))

	// 2. 表格：失败只记录，不影响响应
	_, err = s.repo.LeaveSheet.Append(ctx, &repository.SheetLeave{
		Name:      leave.Name,
		LeaveType: leave.LeaveType,
		StartDate: leave.StartDate.Format(dateLayout),
		EndDate:   leave.EndDate.Format(dateLayout),
		Note:      leave.Note,
		Code:      leave.Code,
	})
	if err != nil {
		log.Error("写入请假表格失败", zap.Error(err))
	} else {
		leave.SheetSynced = true
	}

	// 3. 数据库
	saveErr := s.repo.Leave.Create(ctx, leave)
	if saveErr != nil {
		log.Error("保存请假记录失败", zap.Error(saveErr))
	}

	// 4. 通知：无论前两步结果如何都发送
	notified := s.notify(ctx, log, leaveMessage(leave))
	if notified && saveErr == nil {
		if err := s.repo.Leave.MarkNotified(ctx, leave.ID); err != nil {
			log.Warn("更新通知状态失败", zap.Error(err))
		}
	}

	if saveErr != nil {
		return nil, fmt.Errorf("保存请假记录失败: %w", saveErr)
	}
	return &dto.SubmitResult{
		ID:          leave.ID,
		Code:        leave.Code,
		SheetSynced: leave.SheetSynced,
		Notified:    notified,
	}, nil
}

func (s *leaveService) notify(ctx context.Context, log *zap.Logger, text string) bool {
	if s.notifier == nil {
		return false
	}
	if err := s.notifier.Notify(ctx, text); err != nil {
		log.Warn("发送请假通知失败", zap.Error(err))
		return false
	}
	return true
}

// buildLeave 规范化并校验表单，返回待保存的记录
func buildLeave(form *dto.LeaveForm) (*model.Leave, error) {
	name := truncateRunes(strings.TrimSpace(form.Name), nameMaxLen)
	if name == "" {
		return nil, newValidationError("姓名不能为空")
	}
	leaveType := truncateRunes(strings.TrimSpace(form.LeaveType), leaveTypeMaxLen)
	if leaveType == "" {
		return nil, newValidationError("请假类型不能为空")
	}

	start, err := time.Parse(dateLayout, strings.TrimSpace(form.StartDate))
	if err != nil {
		return nil, newValidationError("开始日期格式错误，应为 YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(form.EndDate))
	if err != nil {
		return nil, newValidationError("结束日期格式错误，应为 YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, newValidationError("开始日期不能晚于结束日期")
	}

	return &model.Leave{
		Name:      name,
		LeaveType: leaveType,
		StartDate: start,
		EndDate:   end,
		Note:      truncateRunes(strings.TrimSpace(form.Note), model.NoteMaxLen),
	}, nil
}

// leaveMessage 通知正文（Telegram HTML 模式，用户输入需转义）
func leaveMessage(l *model.Leave) string {
	note := l.Note
	if note == "" {
		note = "-"
	}
	return fmt.Sprintf(
		"📢 <b>แจ้งเตือนบันทึกการลา</b>\n"+
			"👤 <b>ชื่อ:</b> %s\n"+
			"📝 <b>ประเภท:</b> %s\n"+
			"📅 <b>ช่วง:</b> %s ถึง %s\n"+
			"🗒️ <b>หมายเหตุ:</b> %s",
		html.EscapeString(l.Name),
		html.EscapeString(l.LeaveType),
		l.StartDate.Format(dateLayout),
		l.EndDate.Format(dateLayout),
		html.EscapeString(note),
	)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// ────────────────────── 查询 / 删除 ──────────────────────

func (s *leaveService) ListAll(ctx context.Context) ([]model.LeaveRecord, error) {
	records, err := s.repo.LeaveSheet.ListAll(ctx)
	if err != nil {
		s.logger.Error("读取请假表格失败", zap.Error(err))
		return nil, err
	}
	return records, nil
}

func (s *leaveService) ListByMonth(ctx context.Context, month string) ([]model.LeaveRecord, error) {
	month = strings.TrimSpace(month)
	if _, err := time.Parse(monthLayout, month); err != nil {
		return nil, newValidationError("月份格式错误，应为 YYYY-MM")
	}
	records, err := s.repo.LeaveSheet.ListByMonth(ctx, month)
	if err != nil {
		s.logger.Error("读取请假表格失败", zap.String("month", month), zap.Error(err))
		return nil, err
	}
	return records, nil
}

func (s *leaveService) Delete(ctx context.Context, req *dto.DeleteLeaveRequest) (bool, error) {
	if strings.TrimSpace(req.Timestamp) == "" {
		return false, nil
	}
	ok, err := s.repo.LeaveSheet.Delete(ctx, req.Timestamp, req.Code)
	if err != nil {
		s.logger.Error("删除表格记录失败", zap.String("timestamp", req.Timestamp), zap.Error(err))
		return false, err
	}
	if ok {
		s.logger.Info("已删除表格记录", zap.String("timestamp", req.Timestamp), zap.String("code", req.Code))
	}
	return ok, nil
}

func (s *leaveService) Records(ctx context.Context) ([]dto.LeaveResponse, error) {
	leaves, err := s.repo.Leave.List(ctx)
	if err != nil {
		s.logger.Error("查询请假记录失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.LeaveResponse, 0, len(leaves))
	for i := range leaves {
		l := &leaves[i]
		result = append(result, dto.LeaveResponse{
			ID:          l.ID,
			Timestamp:   l.Timestamp.UTC().Format(repository.TimestampLayout),
			Name:        l.Name,
			LeaveType:   l.LeaveType,
			StartDate:   l.StartDate.Format(dateLayout),
			EndDate:     l.EndDate.Format(dateLayout),
			Note:        l.Note,
			Code:        l.Code,
			SheetSynced: l.SheetSynced,
			Notified:    l.Notified,
		})
	}
	return result, nil
}

// ────────────────────── Resync ──────────────────────

func (s *leaveService) Resync(ctx context.Context) (*dto.ResyncResponse, error) {
	pending, err := s.repo.Leave.ListUnsynced(ctx, resyncBatchSize)
	if err != nil {
		s.logger.Error("查询未同步记录失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.ResyncResponse{Pending: len(pending)}
	for i := range pending {
		l := &pending[i]
		_, err := s.repo.LeaveSheet.Append(ctx, &repository.SheetLeave{
			Timestamp: l.Timestamp.UTC().Format(repository.TimestampLayout),
			Name:      l.Name,
			LeaveType: l.LeaveType,
			StartDate: l.StartDate.Format(dateLayout),
			EndDate:   l.EndDate.Format(dateLayout),
			Note:      l.Note,
			Code:      l.Code,
		})
		if err != nil {
			// 表头错误对后续记录同样生效，直接中止
			if errors.Is(err, repository.ErrSheetSchema) {
				return nil, err
			}
			s.logger.Warn("补写表格失败", zap.Uint("id", l.ID), zap.Error(err))
			resp.Failed++
			continue
		}
		if err := s.repo.Leave.MarkSheetSynced(ctx, l.ID); err != nil {
			s.logger.Warn("更新同步状态失败", zap.Uint("id", l.ID), zap.Error(err))
			resp.Failed++
			continue
		}
		resp.Synced++
	}

	s.logger.Info("表格补写完成",
		zap.Int("pending", resp.Pending),
		zap.Int("synced", resp.Synced),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}
