// Package cli leavectl 的子命令
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"leave-tracker/config"
	"leave-tracker/internal/app"
	applogger "leave-tracker/pkg/logger"
)

// ConfigPath 由根命令的 --config 写入
var ConfigPath string

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// withApp 加载配置并初始化依赖后执行 fn；命令行不执行数据库迁移
func withApp(timeout time.Duration, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return err
	}
	cfg.Log.Format = "console"

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger, false)
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	defer a.Close()

	return fn(ctx, a)
}
