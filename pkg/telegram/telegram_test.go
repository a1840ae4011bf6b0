package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-tracker/config"
)

// fakeBot 记录收到的消息，并按预设顺序返回状态码
type fakeBot struct {
	mu       sync.Mutex
	statuses []int
	texts    []string
	paths    []string
}

func (f *fakeBot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = r.ParseForm()
	f.texts = append(f.texts, r.PostForm.Get("text"))
	f.paths = append(f.paths, r.URL.Path)

	status := http.StatusOK
	if len(f.statuses) > 0 {
		status = f.statuses[0]
		f.statuses = f.statuses[1:]
	}
	w.WriteHeader(status)
	w.Write([]byte(`{"ok":true}`))
}

func newTestClient(t *testing.T, bot *fakeBot) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(bot)
	t.Cleanup(srv.Close)

	c := NewClient(&config.TelegramConfig{
		BotToken: "123:abc",
		ChatID:   "-100",
		APIBase:  srv.URL,
	}, zap.NewNop())

	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestNotify_EmptyIsNoop(t *testing.T) {
	bot := &fakeBot{}
	c, _ := newTestClient(t, bot)

	require.NoError(t, c.Notify(context.Background(), ""))
	assert.Empty(t, bot.texts)
}

func TestNotify_NotConfigured(t *testing.T) {
	c := NewClient(&config.TelegramConfig{}, zap.NewNop())
	assert.ErrorIs(t, c.Notify(context.Background(), "hi"), ErrNotConfigured)
}

func TestNotify_Success(t *testing.T) {
	bot := &fakeBot{}
	c, waits := newTestClient(t, bot)

	require.NoError(t, c.Notify(context.Background(), "<b>hello</b>"))
	assert.Equal(t, []string{"<b>hello</b>"}, bot.texts)
	assert.Equal(t, []string{"/bot123:abc/sendMessage"}, bot.paths)
	assert.Empty(t, *waits)
}

func TestNotify_RetriesOnRateLimit(t *testing.T) {
	bot := &fakeBot{statuses: []int{http.StatusTooManyRequests, http.StatusOK}}
	c, waits := newTestClient(t, bot)

	require.NoError(t, c.Notify(context.Background(), "hello"))
	assert.Len(t, bot.texts, 2)
	assert.Equal(t, []time.Duration{2 * time.Second}, *waits)
}

func TestNotify_GivesUpAfterMaxRetries(t *testing.T) {
	bot := &fakeBot{statuses: []int{500, 500, 500}}
	c, waits := newTestClient(t, bot)

	err := c.Notify(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrGaveUp)
	assert.Len(t, bot.texts, 3)
	// 仅在两次尝试之间等待：2s, 4s
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)
}

func TestNotify_LongMessageSentInChunks(t *testing.T) {
	bot := &fakeBot{}
	c, _ := newTestClient(t, bot)
	c.maxLen = 20

	msg := "line-one-aaaa\nline-two-bbbb\nline-three-c\n"
	require.NoError(t, c.Notify(context.Background(), msg))
	assert.Len(t, bot.texts, 3)
	assert.Equal(t, msg, strings.Join(bot.texts, ""))
}

func TestNotify_LaterChunkFailureFailsCall(t *testing.T) {
	bot := &fakeBot{statuses: []int{200, 400, 400, 400}}
	c, _ := newTestClient(t, bot)
	c.maxLen = 10

	err := c.Notify(context.Background(), "aaaaaaa\nbbbbbbb\n")
	assert.ErrorIs(t, err, ErrGaveUp)
	assert.Len(t, bot.texts, 4)
}

func TestSplitMessage_ShortUnchanged(t *testing.T) {
	assert.Equal(t, []string{"abc"}, SplitMessage("abc", 10))
}

func TestSplitMessage_ChunksWithinLimitAndReconstructible(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("📅 วันลา / 请假记录 line content here\n")
	}
	msg := b.String()

	parts := SplitMessage(msg, MaxMessageLen)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), MaxMessageLen)
	}
	assert.Equal(t, msg, strings.Join(parts, ""))
}

func TestSplitMessage_OverlongLineTruncated(t *testing.T) {
	long := strings.Repeat("x", 30)
	parts := SplitMessage("short\n"+long+"\n", 12)

	require.Len(t, parts, 2)
	assert.Equal(t, "short\n", parts[0])
	assert.Equal(t, strings.Repeat("x", 9)+"...", parts[1])
}

func TestBackoff_Capped(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, 5*time.Second, backoff(3))
	assert.Equal(t, 5*time.Second, backoff(10))
}
