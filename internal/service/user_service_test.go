package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"leave-tracker/internal/dto"
	"leave-tracker/internal/repository"
)

func setupTestUserService() (UserService, *mockUserRepo) {
	userRepo := newMockUserRepo()
	repo := &repository.Repository{User: userRepo}
	return NewUserService(repo, zap.NewNop()), userRepo
}

func TestUserService_List_Paginated(t *testing.T) {
	svc, users := setupTestUserService()
	createTestUser(users, "a", "password123", true, false)
	createTestUser(users, "b", "password123", true, false)
	createTestUser(users, "c", "password123", true, true)

	req := &dto.UserListRequest{}
	req.Page = 2
	req.PageSize = 2

	list, total, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 3 {
		t.Errorf("期望 total=3，实际=%d", total)
	}
	if len(list) != 1 || list[0].Username != "c" || list[0].Role != "admin" {
		t.Errorf("第 2 页应只有管理员 c，实际 %+v", list)
	}
}

func TestUserService_Delete(t *testing.T) {
	svc, users := setupTestUserService()
	createTestUser(users, "admin", "password123", true, true)
	createTestUser(users, "member", "password123", true, false)
	ctx := context.Background()

	if err := svc.Delete(ctx, "uid-admin", "uid-admin"); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
	if err := svc.Delete(ctx, "uid-member", "uid-admin"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if err := svc.Delete(ctx, "uid-member", "uid-admin"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_ToggleAdmin(t *testing.T) {
	svc, users := setupTestUserService()
	createTestUser(users, "admin", "password123", true, true)
	createTestUser(users, "member", "password123", true, false)
	ctx := context.Background()

	if _, err := svc.ToggleAdmin(ctx, "uid-admin", "uid-admin"); !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("期望 ErrUserSelfRoleChange，实际: %v", err)
	}

	resp, err := svc.ToggleAdmin(ctx, "uid-member", "uid-admin")
	if err != nil {
		t.Fatalf("ToggleAdmin 应成功: %v", err)
	}
	if resp.Role != "admin" || !users.users["uid-member"].IsAdmin {
		t.Errorf("应提升为管理员，实际 %+v", resp)
	}

	resp, _ = svc.ToggleAdmin(ctx, "uid-member", "uid-admin")
	if resp.Role != "member" {
		t.Errorf("再次切换应降为成员，实际 %s", resp.Role)
	}

	if _, err := svc.ToggleAdmin(ctx, "nope", "uid-admin"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_ToggleVerified(t *testing.T) {
	svc, users := setupTestUserService()
	u := createTestUser(users, "pending", "password123", false, false)
	token := "verify"
	u.VerifyToken = &token

	resp, err := svc.ToggleVerified(context.Background(), "uid-pending")
	if err != nil {
		t.Fatalf("ToggleVerified 应成功: %v", err)
	}
	if !resp.IsVerified || u.VerifyToken != nil {
		t.Error("手动验证后应清除验证令牌")
	}
}

func TestUserService_CreateAdmin(t *testing.T) {
	svc, users := setupTestUserService()
	ctx := context.Background()

	resp, err := svc.CreateAdmin(ctx, &dto.CreateAdminRequest{Username: "root", Email: "Root@Example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("CreateAdmin 应成功: %v", err)
	}
	u := users.users[resp.ID]
	if !u.IsAdmin || !u.IsVerified || u.Email != "root@example.com" {
		t.Errorf("管理员应已验证，实际 %+v", u)
	}

	if _, err := svc.CreateAdmin(ctx, &dto.CreateAdminRequest{Username: "root", Email: "x@example.com", Password: "password123"}); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("期望 ErrUsernameExists，实际: %v", err)
	}
	if _, err := svc.CreateAdmin(ctx, &dto.CreateAdminRequest{Username: "r2", Email: "r2@example.com", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("期望 ErrPasswordTooShort，实际: %v", err)
	}
}
