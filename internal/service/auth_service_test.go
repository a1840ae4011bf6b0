package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"leave-tracker/config"
	"leave-tracker/internal/dto"
	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
	"leave-tracker/pkg/jwt"
)

// ── 测试辅助 ──

type authFixture struct {
	cfg       *config.Config
	svc       AuthService
	users     *mockUserRepo
	mailer    *mockMailer
	blacklist *mockBlacklist
	jwtMgr    *jwt.Manager
}

func setupTestAuthService() *authFixture {
	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "https://leave.example.com/"},
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-tests",
			AccessTokenTTL: 15 * time.Minute,
		},
	}
	f := &authFixture{
		cfg:       cfg,
		users:     newMockUserRepo(),
		mailer:    &mockMailer{},
		blacklist: &mockBlacklist{},
		jwtMgr:    jwt.NewManager(&cfg.Auth),
	}
	repo := &repository.Repository{User: f.users}
	f.svc = NewAuthService(cfg, repo, f.jwtMgr, f.blacklist, f.mailer, zap.NewNop())
	return f
}

func createTestUser(repo *mockUserRepo, username, password string, verified, admin bool) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		UserID:       "uid-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsVerified:   verified,
		IsAdmin:      admin,
	}
	repo.users[u.UserID] = u
	return u
}

// ── Register / Verify ──

func TestAuthService_Register_SendsVerifyLink(t *testing.T) {
	f := setupTestAuthService()

	resp, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Username: " alice ", Email: "Alice@Example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.Username != "alice" || resp.Email != "alice@example.com" {
		t.Errorf("用户名应去空格、邮箱应转小写，实际 %+v", resp)
	}

	user := f.users.users[resp.ID]
	if user.IsVerified || user.VerifyToken == nil {
		t.Fatal("新用户应未验证且带有验证令牌")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("期望发送 1 封邮件，实际 %d", len(f.mailer.sent))
	}
	wantLink := "https://leave.example.com/api/v1/auth/verify/" + *user.VerifyToken
	if !strings.Contains(f.mailer.sent[0].body, wantLink) {
		t.Errorf("邮件应包含验证链接 %s，实际 %s", wantLink, f.mailer.sent[0].body)
	}
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.users, "bob", "password123", true, false)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, &dto.RegisterRequest{Username: "bob", Email: "new@example.com", Password: "password123"})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("期望 ErrUsernameExists，实际: %v", err)
	}
	_, err = f.svc.Register(ctx, &dto.RegisterRequest{Username: "bob2", Email: "bob@example.com", Password: "password123"})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestAuthService_Register_MailFailureTolerated(t *testing.T) {
	f := setupTestAuthService()
	f.mailer.err = errors.New("smtp down")

	if _, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "password123",
	}); err != nil {
		t.Errorf("邮件失败不应导致注册失败: %v", err)
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.users, "dave", "password123", false, false)
	token := "tok-1"
	u.VerifyToken = &token
	ctx := context.Background()

	if err := f.svc.VerifyEmail(ctx, "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, "tok-1"); err != nil {
		t.Fatalf("VerifyEmail 应成功: %v", err)
	}
	if !u.IsVerified || u.VerifyToken != nil {
		t.Error("验证后应标记已验证并清除令牌")
	}
}

// ── Login / Logout ──

func TestAuthService_Login_Success(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.users, "erin", "password123", true, true)

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "erin", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("期望 expires_in=900，实际 %d", resp.ExpiresIn)
	}
	claims, err := f.jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("Token 应可解析: %v", err)
	}
	if claims.Role != jwt.RoleAdmin || claims.Username != "erin" {
		t.Errorf("Token 声明不正确: %+v", claims)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.users, "frank", "password123", true, false)
	createTestUser(f.users, "grace", "password123", false, false)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "frank", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("错误密码期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("不存在的用户期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "grace", Password: "password123"}); !errors.Is(err, ErrEmailNotVerified) {
		t.Errorf("未验证用户期望 ErrEmailNotVerified，实际: %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := setupTestAuthService()

	if err := f.svc.Logout(context.Background(), "jti-1", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := f.blacklist.jtis["jti-1"]
	if !ok || ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("黑名单 TTL 应为剩余有效期，实际 %v", ttl)
	}
}

// ── 密码重置 ──

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.users, "heidi", "oldpassword", true, false)
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "HEIDI@example.com"}); err != nil {
		t.Fatalf("ForgotPassword 应成功: %v", err)
	}
	if u.ResetToken == nil {
		t.Fatal("应生成重置令牌")
	}
	if !strings.Contains(f.mailer.sent[0].body, "/api/v1/auth/reset/"+*u.ResetToken) {
		t.Errorf("邮件应包含重置链接: %s", f.mailer.sent[0].body)
	}

	token := *u.ResetToken
	if err := f.svc.ResetPassword(ctx, token, &dto.ResetPasswordRequest{Password: "newpassword"}); err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}
	if u.ResetToken != nil {
		t.Error("重置后应清除令牌")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpassword")) != nil {
		t.Error("新密码未生效")
	}
	if err := f.svc.ResetPassword(ctx, token, &dto.ResetPasswordRequest{Password: "another1"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("令牌只能使用一次，实际: %v", err)
	}
}

func TestAuthService_CheckResetToken(t *testing.T) {
	f := setupTestAuthService()
	u := createTestUser(f.users, "judy", "oldpassword", true, false)
	token := "reset/token 1"
	u.ResetToken = &token
	ctx := context.Background()

	target, err := f.svc.CheckResetToken(ctx, token)
	if err != nil {
		t.Fatalf("有效令牌应通过: %v", err)
	}
	if target != "" {
		t.Errorf("未配置前端页面时不应跳转，实际 %q", target)
	}

	f.cfg.Server.ResetURL = "https://app.example.com/reset"
	target, err = f.svc.CheckResetToken(ctx, token)
	if err != nil {
		t.Fatalf("有效令牌应通过: %v", err)
	}
	if target != "https://app.example.com/reset?token=reset%2Ftoken+1" {
		t.Errorf("跳转地址错误: %q", target)
	}

	for _, bad := range []string{"", "unknown"} {
		if _, err := f.svc.CheckResetToken(ctx, bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("令牌 %q 期望 ErrInvalidToken，实际: %v", bad, err)
		}
	}
	if u.ResetToken == nil {
		t.Error("校验不应消耗令牌")
	}
}

func TestAuthService_ForgotPassword_UnknownEmailSilent(t *testing.T) {
	f := setupTestAuthService()

	if err := f.svc.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "ghost@example.com"}); err != nil {
		t.Errorf("未知邮箱应静默成功: %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Error("未知邮箱不应发送邮件")
	}
}

func TestAuthService_DeleteAccount(t *testing.T) {
	f := setupTestAuthService()
	createTestUser(f.users, "ivan", "password123", true, false)

	if err := f.svc.DeleteAccount(context.Background(), "uid-ivan"); err != nil {
		t.Fatalf("DeleteAccount 应成功: %v", err)
	}
	if err := f.svc.DeleteAccount(context.Background(), "uid-ivan"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
