// Generation and diagnostics endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pibot-ai/pibot/pkg/commands"
	"github.com/pibot-ai/pibot/pkg/interactions"
	"github.com/pibot-ai/pibot/pkg/logger"
	"github.com/pibot-ai/pibot/pkg/providers"
	"github.com/pibot-ai/pibot/pkg/worker"
)

type generateRequest struct {
	Prompt        string              `json:"prompt"`
	History       []providers.Message `json:"history,omitempty"`
	SystemMessage string              `json:"systemMessage,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
		return
	}

	if s.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no completion provider configured",
		})
		return
	}

	cfg := s.currentConfig()
	system := req.SystemMessage
	if system == "" {
		system = s.personas.Resolve(cfg.Reply.Persona).Soul
	}

	messages := make([]providers.Message, 0, len(req.History)+2)
	messages = append(messages, providers.Message{Role: "system", Content: system})
	messages = append(messages, req.History...)
	messages = append(messages, providers.Message{Role: "user", Content: req.Prompt})

	model := cfg.Reply.Model
	if model == "" {
		model = s.provider.GetDefaultModel()
	}
	options := map[string]any{
		"temperature": cfg.Reply.Temperature,
		"max_tokens":  cfg.Reply.MaxTokens,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	response, err := s.provider.Chat(ctx, messages, model, options)
	if err != nil {
		logger.ErrorCF("api", "Generation failed", map[string]any{
			"model": model,
			"error": err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to generate response",
		})
		return
	}

	it := s.store.Add(req.Prompt, response, model)

	writeJSON(w, http.StatusOK, map[string]any{
		"response":      response,
		"interactionId": it.ID,
	})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"interactions": s.store.List(),
	})
}

func (s *Server) handleInteractionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/interactions/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "interaction id required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		it, err := s.store.Get(id)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "interaction not found"})
			return
		}
		writeJSON(w, http.StatusOK, it)

	case http.MethodPut:
		var req struct {
			Prompt   string `json:"prompt"`
			Response string `json:"response"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		it, err := s.store.Update(id, req.Prompt, req.Response)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "interaction not found"})
			return
		}
		writeJSON(w, http.StatusOK, it)

	case http.MethodDelete:
		if err := s.store.Delete(id); err != nil {
			if errors.Is(err, interactions.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "interaction not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "unsupported method"})
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "command is required"})
		return
	}

	res, err := s.runner.Run(r.Context(), req.Command)
	if err != nil {
		if errors.Is(err, commands.ErrUnauthorized) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": "command not authorized",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  "command failed",
			"stderr": res.Stderr,
		})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeavyTask(w http.ResponseWriter, r *http.Request) {
	res, err := worker.RunHeavyTask(r.Context(), 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
