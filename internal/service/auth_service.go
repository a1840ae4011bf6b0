package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"leave-tracker/config"
	"leave-tracker/internal/dto"
	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
	"leave-tracker/pkg/jwt"
	"leave-tracker/pkg/mail"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrEmailNotVerified   = errors.New("邮箱尚未验证")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrEmailExists        = errors.New("邮箱已注册")
	ErrInvalidToken       = errors.New("链接无效或已过期")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Logout 将当前 Token 加入黑名单直至其过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	CheckResetToken(ctx context.Context, token string) (string, error)
	ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) error
	DeleteAccount(ctx context.Context, userID string) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	mailer    mail.Sender
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	mailer mail.Sender,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		mailer:    mailer,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	token := uuid.NewString()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		VerifyToken:  &token,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	// 邮件失败不影响注册结果
	link := s.link("verify", token)
	body := fmt.Sprintf(`กรุณาคลิกลิงก์เพื่อยืนยันอีเมล: <a href="%s">%s</a>`, link, link)
	if err := s.mailer.Send(ctx, email, "ยืนยันอีเมล", body); err != nil {
		s.logger.Warn("发送验证邮件失败", zap.String("user_id", user.UserID), zap.Error(err))
	}

	return &dto.RegisterResponse{ID: user.UserID, Username: user.Username, Email: user.Email}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	user, err := s.repo.User.GetByVerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	user.IsVerified = true
	user.VerifyToken = nil
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新验证状态失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Login / Logout ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	// 3. 生成 Token
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Username, user.Role())
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 密码重置 ──────────────────────

// ForgotPassword 邮箱不存在时同样返回成功，避免暴露注册信息
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := s.repo.User.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	user.ResetToken = &token
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("保存重置令牌失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}

	link := s.link("reset", token)
	body := fmt.Sprintf(`<p>กรุณาคลิกลิงก์เพื่อรีเซ็ตรหัสผ่าน:</p>
<p><a href="%s">%s</a></p>
<p>หากไม่ได้ร้องขอ คุณสามารถเพิกเฉยอีเมลนี้ได้</p>`, link, link)
	if err := s.mailer.Send(ctx, user.Email, "รีเซ็ตรหัสผ่าน (Leave App)", body); err != nil {
		s.logger.Error("发送重置邮件失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

// CheckResetToken 校验邮件中的重置令牌，返回前端重置页地址（未配置时为空）
func (s *authService) CheckResetToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	if _, err := s.repo.User.GetByResetToken(ctx, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if s.cfg.Server.ResetURL == "" {
		return "", nil
	}
	return s.cfg.Server.ResetURL + "?token=" + url.QueryEscape(token), nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) error {
	if token == "" {
		return ErrInvalidToken
	}
	user, err := s.repo.User.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.ResetToken = nil
	return s.repo.User.Update(ctx, user)
}

func (s *authService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.repo.User.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("删除账号失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// link 拼接邮件中的回调地址：{base_url}/api/v1/auth/{kind}/{token}
func (s *authService) link(kind, token string) string {
	base := strings.TrimRight(s.cfg.Server.BaseURL, "/")
	return fmt.Sprintf("%s/api/v1/auth/%s/%s", base, kind, token)
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:         u.UserID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role(),
		IsVerified: u.IsVerified,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
