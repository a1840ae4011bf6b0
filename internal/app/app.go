// Package app 组装服务端与命令行共用的依赖：数据库、Redis、工作表、Repository、Service。
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"leave-tracker/config"
	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
	"leave-tracker/internal/service"
	"leave-tracker/pkg/database"
	"leave-tracker/pkg/jwt"
	"leave-tracker/pkg/mail"
	"leave-tracker/pkg/redis"
	"leave-tracker/pkg/sheet"
	"leave-tracker/pkg/telegram"
)

// App 已初始化的依赖集合
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *gorm.DB
	Redis   *redis.Client // 连接失败时为 nil
	JWT     *jwt.Manager
	Repo    *repository.Repository
	Service *service.Service

	closers []func() error
}

// New 按配置初始化全部依赖；migrate=true 时执行数据库迁移
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	// 1. 数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	if migrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// 2. Redis（可选：连接失败时降级运行）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用", zap.Error(err))
	} else {
		a.Redis = rdb
		a.closers = append(a.closers, rdb.Close)
	}

	// 3. 请假表格
	leaveSheet, err := a.openLeaveSheet(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 4. 就诊报表（可选）
	var hosxp *gorm.DB
	var reportSheet sheet.Backend
	if cfg.Report.Enabled() {
		hosxp, reportSheet, err = a.openReport(ctx)
		if err != nil {
			logger.Warn("就诊报表任务初始化失败，已禁用", zap.Error(err))
			hosxp, reportSheet = nil, nil
		}
	}

	// 5. 依赖注入: Repository → Service
	a.JWT = jwt.NewManager(&cfg.Auth)
	a.Repo = repository.NewRepository(db, leaveSheet, repository.Options{
		StrictSheetDelete: cfg.Sheet.StrictDelete,
		HosXP:             hosxp,
	})

	if !cfg.Telegram.Enabled() {
		logger.Warn("未配置 Telegram 机器人，请假通知将不会发送")
	}
	deps := service.Dependencies{
		JWT:         a.JWT,
		Mailer:      mail.NewSender(&cfg.Mail, logger),
		Notifier:    telegram.NewClient(&cfg.Telegram, logger),
		ReportSheet: reportSheet,
	}
	// 接口变量不能持有 nil 指针
	if a.Redis != nil {
		deps.Blacklist = a.Redis
	}
	a.Service = service.NewService(cfg, a.Repo, deps, logger)

	return a, nil
}

func (a *App) openLeaveSheet(ctx context.Context) (sheet.Backend, error) {
	cfg := a.Config.Sheet
	switch cfg.Backend {
	case "excel":
		b, err := sheet.OpenExcel(cfg.ExcelPath, cfg.Worksheet, model.DefaultSheetHeaders)
		if err != nil {
			return nil, fmt.Errorf("打开本地请假工作簿失败: %w", err)
		}
		a.closers = append(a.closers, b.Close)
		a.Logger.Info("请假表格使用本地工作簿", zap.String("path", cfg.ExcelPath))
		return b, nil
	default:
		b, err := sheet.OpenGoogle(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.Worksheet)
		if err != nil {
			return nil, fmt.Errorf("连接 Google 表格失败: %w", err)
		}
		a.Logger.Info("请假表格使用 Google Sheets", zap.String("spreadsheet_id", cfg.SpreadsheetID))
		return b, nil
	}
}

func (a *App) openReport(ctx context.Context) (*gorm.DB, sheet.Backend, error) {
	cfg := a.Config.Report
	hosxp, err := database.NewHosXPDB(&cfg.HosXP, a.Logger)
	if err != nil {
		return nil, nil, err
	}
	if sqlDB, err := hosxp.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	target, err := sheet.OpenGoogle(ctx, a.Config.Sheet.CredentialsFile, cfg.SpreadsheetID, cfg.Worksheet)
	if err != nil {
		return nil, nil, fmt.Errorf("连接报表工作表失败: %w", err)
	}
	return hosxp, target, nil
}

// Close 按初始化的逆序释放资源
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("释放资源失败", zap.Error(err))
		}
	}
	a.closers = nil
}
