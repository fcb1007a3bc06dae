package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/channels"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/personas"
	"github.com/pibot-ai/pibot/pkg/providers"
)

type stubChannel struct {
	running bool
	sendErr error
	lastMsg string
}

func (c *stubChannel) Name() string                    { return "telegram" }
func (c *stubChannel) Start(ctx context.Context) error { return nil }
func (c *stubChannel) Stop(ctx context.Context) error  { return nil }
func (c *stubChannel) IsRunning() bool                 { return c.running }
func (c *stubChannel) IsAllowed(senderID string) bool  { return true }

func (c *stubChannel) Send(ctx context.Context, chatID, topicID, content string) (string, error) {
	if c.sendErr != nil {
		return "", c.sendErr
	}
	c.lastMsg = content
	return "777", nil
}

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Chat(ctx context.Context, messages []providers.Message, model string, options map[string]any) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *stubProvider) GetDefaultModel() string { return "stub-model" }

func newTestServer(t *testing.T, ch channels.Channel, provider providers.LLMProvider) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	mailbox := bus.NewMailbox()
	mb := bus.NewMessageBus()
	t.Cleanup(mb.Close)

	manager, err := channels.NewManager(cfg, mailbox, mb)
	require.NoError(t, err)
	if ch != nil {
		manager.Register("telegram", ch)
	}

	return NewServer(cfg, "", manager, mailbox, mb, provider, personas.NewRegistry(), nil)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSendRequiresChatIDAndMessage(t *testing.T) {
	s := newTestServer(t, &stubChannel{running: true}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing chatId", `{"message":"hi"}`},
		{"missing message", `{"chatId":"42"}`},
		{"blank message", `{"chatId":"42","message":"   "}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s.handleTelegramSend, "/api/telegram/send", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSendWithoutAdapterReturns503(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := postJSON(t, s.handleTelegramSend, "/api/telegram/send", `{"chatId":"42","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSendWithStoppedAdapterReturns503(t *testing.T) {
	s := newTestServer(t, &stubChannel{running: false}, nil)

	rec := postJSON(t, s.handleTelegramSend, "/api/telegram/send", `{"chatId":"42","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSendDeliveryFailureReturns500AndNoEcho(t *testing.T) {
	ch := &stubChannel{
		running: true,
		sendErr: &channels.DeliveryError{Channel: "telegram", Detail: "chat not found"},
	}
	s := newTestServer(t, ch, nil)

	rec := postJSON(t, s.handleTelegramSend, "/api/telegram/send", `{"chatId":"42","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat not found", resp["detail"])

	assert.Zero(t, s.mailbox.Len())
}

func TestSendRoundTrip(t *testing.T) {
	ch := &stubChannel{running: true}
	s := newTestServer(t, ch, nil)

	rec := postJSON(t, s.handleTelegramSend, "/api/telegram/send",
		`{"chatId":"42","topicId":"7","message":"hello there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello there", ch.lastMsg)

	var sendResp struct {
		Success     bool        `json:"success"`
		SentMessage bus.Message `json:"sentMessage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sendResp))
	assert.True(t, sendResp.Success)
	assert.Equal(t, "777", sendResp.SentMessage.PlatformMessageID)

	// The echo is already drainable.
	req := httptest.NewRequest(http.MethodGet, "/api/telegram/messages", nil)
	drainRec := httptest.NewRecorder()
	s.handleTelegramMessages(drainRec, req)
	require.Equal(t, http.StatusOK, drainRec.Code)

	var drainResp struct {
		Messages []bus.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(drainRec.Body.Bytes(), &drainResp))
	require.Len(t, drainResp.Messages, 1)
	assert.Equal(t, bus.DirectionEcho, drainResp.Messages[0].Direction)
	assert.Equal(t, "42", drainResp.Messages[0].ChatID)
	assert.Equal(t, "7", drainResp.Messages[0].TopicID)
	assert.Equal(t, WebSenderLabel, drainResp.Messages[0].Sender)

	// Second drain is empty but well-formed.
	drainRec = httptest.NewRecorder()
	s.handleTelegramMessages(drainRec, httptest.NewRequest(http.MethodGet, "/api/telegram/messages", nil))
	require.Equal(t, http.StatusOK, drainRec.Code)
	assert.JSONEq(t, `{"messages":[]}`, drainRec.Body.String())
}

func TestMessagesRejectsPost(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := httptest.NewRecorder()
	s.handleTelegramMessages(rec, httptest.NewRequest(http.MethodPost, "/api/telegram/messages", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
