// Package mail 发送账号验证、重置密码等 HTML 邮件。
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"leave-tracker/config"
)

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender 通过 SMTPS（隐式 TLS，默认 465 端口）发送邮件
type SMTPSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSender 创建发送器；未配置发件人时返回只写日志的实现
func NewSender(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.From == "" || cfg.SMTPHost == "" {
		logger.Warn("未配置 SMTP，邮件内容仅写入日志")
		return &LogSender{logger: logger}
	}
	return &SMTPSender{cfg: *cfg, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("连接 SMTP 失败: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(timeout))
	}

	c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("创建 SMTP 会话失败: %w", err)
	}
	defer c.Close()

	username := s.cfg.Username
	if username == "" {
		username = s.cfg.From
	}
	if err := c.Auth(smtp.PlainAuth("", username, s.cfg.Password, s.cfg.SMTPHost)); err != nil {
		return fmt.Errorf("SMTP 认证失败: %w", err)
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(BuildMessage(s.cfg.FromName, s.cfg.From, to, subject, htmlBody)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// LogSender 开发环境使用：不发信，只记录
type LogSender struct {
	logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.logger.Info("邮件（未发送）",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", htmlBody),
	)
	return nil
}

// BuildMessage 组装 UTF-8 HTML 邮件报文
func BuildMessage(fromName, from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fromHeader := from
	if fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), from)
	}
	b.WriteString("From: " + fromHeader + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
