package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leave-tracker/config"
	"leave-tracker/pkg/database"
	applogger "leave-tracker/pkg/logger"
)

// DBCmd 数据库迁移命令
func DBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "数据库迁移",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "应用全部未执行的迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB, logger *zap.Logger) error {
				if err := database.RunMigrations(db, logger); err != nil {
					fmt.Printf("%s %v\n", failMark("FAILED"), err)
					return err
				}
				fmt.Println(okMark("OK"), "迁移完成")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "查看当前迁移版本",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB, _ *zap.Logger) error {
				status, err := database.GetMigrationStatus(db)
				if err != nil {
					return err
				}
				switch {
				case !status.Applied:
					fmt.Println(warnMark("EMPTY"), "尚未执行任何迁移")
				case status.Dirty:
					fmt.Printf("%s version=%d\n", failMark("DIRTY"), status.Version)
				default:
					fmt.Printf("%s version=%d\n", okMark("OK"), status.Version)
				}
				return nil
			})
		},
	})
	return cmd
}

// withDB 只连接主数据库，不初始化表格与外部服务
func withDB(fn func(db *sql.DB, logger *zap.Logger) error) error {
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

	gdb, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(sqlDB, logger)
}
