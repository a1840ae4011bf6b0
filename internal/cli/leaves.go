package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leave-tracker/internal/app"
)

// LeavesCmd 请假记录相关命令
func LeavesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaves",
		Short: "请假记录维护",
	}
	cmd.AddCommand(leavesResyncCmd())
	return cmd
}

func leavesResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "将未写入表格的数据库记录补写到请假表格",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(5*time.Minute, func(ctx context.Context, a *app.App) error {
				result, err := a.Service.Leave.Resync(ctx)
				if err != nil {
					return err
				}

				mark := okMark("OK")
				if result.Failed > 0 {
					mark = warnMark("PARTIAL")
				}
				fmt.Printf("%s 待补写 %d 条，成功 %d 条，失败 %d 条\n",
					mark, result.Pending, result.Synced, result.Failed)
				if result.Failed > 0 {
					return fmt.Errorf("%d 条记录补写失败", result.Failed)
				}
				return nil
			})
		},
	}
}
