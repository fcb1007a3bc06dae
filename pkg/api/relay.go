// Relay endpoints — the HTTP face of the message mailbox.
//
// POST /api/telegram/send    pushes a message into a Telegram conversation
// GET  /api/telegram/messages drains every captured message exactly once
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/channels"
	"github.com/pibot-ai/pibot/pkg/logger"
)

// WebSenderLabel tags echoes of messages sent through the gateway itself.
const WebSenderLabel = "web"

type sendRequest struct {
	ChatID  string `json:"chatId"`
	TopicID string `json:"topicId,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleTelegramSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.ChatID = strings.TrimSpace(req.ChatID)
	if req.ChatID == "" || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "chatId and message are required",
		})
		return
	}

	ch, ok := s.manager.Get("telegram")
	if !ok || !ch.IsRunning() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "telegram bot is not available",
		})
		return
	}

	platformID, err := ch.Send(r.Context(), req.ChatID, req.TopicID, req.Message)
	if err != nil {
		if errors.Is(err, channels.ErrNotRunning) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "telegram bot is not available",
			})
			return
		}
		var de *channels.DeliveryError
		detail := err.Error()
		if errors.As(err, &de) {
			detail = de.Detail
		}
		logger.ErrorCF("api", "Telegram delivery failed", map[string]any{
			"chat_id": req.ChatID,
			"error":   detail,
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "failed to send message",
			"detail": detail,
		})
		return
	}

	// The echo copy is enqueued before the response is written, so a drain
	// issued after a successful send always observes it.
	echo := bus.Message{
		Direction:         bus.DirectionEcho,
		Channel:           "telegram",
		ChatID:            req.ChatID,
		TopicID:           req.TopicID,
		Sender:            WebSenderLabel,
		Content:           req.Message,
		PlatformMessageID: platformID,
		CreatedAt:         time.Now().UTC(),
	}
	s.mailbox.Enqueue(echo)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"sentMessage": echo,
	})
}

func (s *Server) handleTelegramMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET required"})
		return
	}

	batch := s.mailbox.DrainAll()
	if batch == nil {
		batch = []bus.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": batch,
	})
}
