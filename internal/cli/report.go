package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leave-tracker/internal/app"
)

// ReportCmd 就诊报表相关命令
func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "医院就诊报表",
	}
	cmd.AddCommand(reportPushCmd())
	return cmd
}

func reportPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "push",
		Short:   "查询 HOSxP 就诊记录并覆盖写入报表工作表",
		Example: "  leavectl report push --since 2025-06-01",
		RunE: func(cmd *cobra.Command, args []string) error {
			since, _ := cmd.Flags().GetString("since")
			if since == "" {
				since = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
			}

			return withApp(10*time.Minute, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.Report.PushVisits(ctx, since)
				if err != nil {
					fmt.Printf("%s %v\n", failMark("FAILED"), err)
					return err
				}
				fmt.Printf("%s 已写入 %d 行（since %s）\n", okMark("OK"), result.Rows, since)
				return nil
			})
		},
	}
	cmd.Flags().String("since", "", "起始日期 YYYY-MM-DD，默认昨天")
	return cmd
}
