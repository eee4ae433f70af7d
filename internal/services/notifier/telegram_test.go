package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTelegram_Notify(t *testing.T) {
	var gotPath string
	var gotForm url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg := &Telegram{
		httpClient: &http.Client{Timeout: time.Second},
		l:          zap.NewNop(),
		apiBase:    server.URL,
		token:      "test-token",
		chatID:     "42",
	}

	tg.Notify(context.Background(), "position opened")

	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, "42", gotForm.Get("chat_id"))
	assert.Equal(t, "position opened", gotForm.Get("text"))
	assert.Equal(t, "HTML", gotForm.Get("parse_mode"))
}

func TestTelegram_NotifySwallowsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tg := &Telegram{
		httpClient: &http.Client{Timeout: time.Second},
		l:          zap.NewNop(),
		apiBase:    server.URL,
		token:      "t",
		chatID:     "1",
	}

	// must not panic or propagate anything
	tg.Notify(context.Background(), "hello")
}
