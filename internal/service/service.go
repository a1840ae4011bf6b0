package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leave-tracker/config"
	"leave-tracker/internal/repository"
	"leave-tracker/pkg/jwt"
	"leave-tracker/pkg/mail"
	"leave-tracker/pkg/sheet"
)

// Notifier 聊天群通知
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TokenBlacklist 注销后的 Token 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// ValidationError 用户输入校验失败，Message 原样返回给调用方
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Dependencies Service 层用到的外部组件
type Dependencies struct {
	JWT       *jwt.Manager
	Blacklist TokenBlacklist // 可为 nil（未启用 Redis）
	Mailer    mail.Sender
	Notifier  Notifier
	// ReportSheet 就诊报表目标工作表，可为 nil（未配置报表任务）
	ReportSheet sheet.Backend
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Leave     LeaveService
	Dashboard DashboardService
	Calendar  CalendarService
	Export    ExportService
	Report    ReportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Dependencies,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:      NewAuthService(cfg, repo, deps.JWT, deps.Blacklist, deps.Mailer, logger),
		User:      NewUserService(repo, logger),
		Leave:     NewLeaveService(repo, deps.Notifier, logger),
		Dashboard: NewDashboardService(repo, logger),
		Calendar:  NewCalendarService(repo, logger),
		Export:    NewExportService(repo, logger),
		Report:    NewReportService(&cfg.Report, repo, deps.ReportSheet, logger),
	}
}
