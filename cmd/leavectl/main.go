package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leave-tracker/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leavectl",
		Short: "请假系统运维命令行",
		Long: `leavectl 用于执行不经过 HTTP 的运维操作：
补写未同步到表格的请假记录、推送就诊报表、创建管理员账号、执行数据库迁移。`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cli.ConfigPath, "config", "", "配置文件路径")

	rootCmd.AddCommand(cli.LeavesCmd())
	rootCmd.AddCommand(cli.ReportCmd())
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.DBCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
