package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leave-tracker/internal/app"
	"leave-tracker/internal/dto"
)

// UserCmd 用户相关命令
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "用户账号管理",
	}
	cmd.AddCommand(userCreateAdminCmd())
	return cmd
}

func userCreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "创建已验证的管理员账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &dto.CreateAdminRequest{}
			req.Username, _ = cmd.Flags().GetString("username")
			req.Email, _ = cmd.Flags().GetString("email")
			req.Password, _ = cmd.Flags().GetString("password")

			return withApp(30*time.Second, func(ctx context.Context, a *app.App) error {
				user, err := a.Service.User.CreateAdmin(ctx, req)
				if err != nil {
					return err
				}
				fmt.Printf("%s 管理员 %s <%s> 已创建（id=%s）\n", okMark("OK"), user.Username, user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("username", "", "用户名")
	cmd.Flags().String("email", "", "邮箱")
	cmd.Flags().String("password", "", "密码（至少 8 位）")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
