// Package telegram 通过 Telegram Bot API 向群组推送 HTML 文本消息。
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"leave-tracker/config"
)

// MaxMessageLen Telegram 单条消息的最大长度（字符）
const MaxMessageLen = 4096

const (
	defaultAPIBase    = "https://api.telegram.org"
	defaultMaxRetries = 3
	maxBackoff        = 5 * time.Second
	ellipsis          = "..."
)

var (
	ErrNotConfigured = errors.New("未配置 TELEGRAM_BOT_TOKEN/CHAT_ID")
	ErrRateLimited   = errors.New("Telegram 限流 (429)")
	ErrGaveUp        = errors.New("Telegram 发送重试次数已用尽")
)

// Client Telegram 机器人客户端，复用同一个 http.Client 的连接
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
	chatID     string
	maxRetries int
	maxLen     int
	logger     *zap.Logger

	// sleep 在两次尝试之间等待，测试中可替换
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient 根据配置创建客户端
func NewClient(cfg *config.TelegramConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    apiBase,
		token:      cfg.BotToken,
		chatID:     cfg.ChatID,
		maxRetries: retries,
		maxLen:     MaxMessageLen,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Notify 发送一条消息；超长时按行拆分为多条依次发送。
// 空消息直接返回成功。任一分片重试耗尽即返回错误（之前的分片可能已发出）。
func (c *Client) Notify(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if c.token == "" || c.chatID == "" {
		return ErrNotConfigured
	}

	parts := SplitMessage(text, c.maxLen)
	for i, part := range parts {
		if err := c.sendWithRetry(ctx, part); err != nil {
			return fmt.Errorf("发送第 %d/%d 段失败: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func (c *Client) sendWithRetry(ctx context.Context, text string) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.sendOnce(ctx, text)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("Telegram 发送失败",
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == c.maxRetries {
			break
		}
		if err := c.sleep(ctx, backoff(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrGaveUp, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	form := url.Values{
		"chat_id":              {c.chatID},
		"text":                 {text},
		"parse_mode":           {"HTML"},
		"disable_notification": {"false"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return ErrRateLimited
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		io.Copy(io.Discard, resp.Body)
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("Telegram HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// backoff 线性退避，上限 5 秒
func backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * 2 * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SplitMessage 按行拆分消息，保证每段不超过 maxLen 个字符。
// 行尾换行符保留在所在行，拼接各段即得到原文；
// 单行本身超长时截断并以 "..." 结尾。
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var (
		parts []string
		buf   strings.Builder
		cur   int
	)
	for _, line := range splitLinesKeepEnds(text) {
		n := utf8.RuneCountInString(line)
		if n > maxLen {
			line = truncate(line, maxLen)
			n = maxLen
		}
		if cur+n > maxLen && cur > 0 {
			parts = append(parts, buf.String())
			buf.Reset()
			cur = 0
		}
		buf.WriteString(line)
		cur += n
	}
	if cur > 0 {
		parts = append(parts, buf.String())
	}
	return parts
}

func splitLinesKeepEnds(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

func truncate(s string, maxLen int) string {
	keep := maxLen - utf8.RuneCountInString(ellipsis)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + ellipsis
}
