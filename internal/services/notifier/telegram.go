package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	httpClient *http.Client
	l          *zap.Logger
	apiBase    string
	token      string
	chatID     string
}

// NewTelegram creates a Telegram notifier for the given bot token and chat.
func NewTelegram(token, chatID string, l *zap.Logger) *Telegram {
	return &Telegram{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		l:          l,
		apiBase:    telegramAPIBase,
		token:      token,
		chatID:     chatID,
	}
}

// Notify posts the message to the configured chat. Errors are logged and
// swallowed so a Telegram outage cannot stall the decision loop.
func (t *Telegram) Notify(ctx context.Context, text string) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.l.Warn("failed to build telegram request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.l.Warn("failed to send telegram notification", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.l.Warn("telegram API rejected notification", zap.Int("status", resp.StatusCode))
	}
}
