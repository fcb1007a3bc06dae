// Package relayclient is the Go client for the gateway's relay surface.
// The terminal chat client uses it to send messages into a Telegram
// conversation and to poll the mailbox for replies.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/config"
)

// RequestError is a non-2xx gateway response.
type RequestError struct {
	Status  int
	Message string
	Detail  string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway returned %d: %s (%s)", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

// IsUnavailable reports whether the gateway rejected the request because the
// platform adapter is down.
func (e *RequestError) IsUnavailable() bool {
	return e.Status == http.StatusServiceUnavailable
}

// Client talks to a running gateway over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &RequestError{
			Status:  resp.StatusCode,
			Message: body.Error,
			Detail:  body.Detail,
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Send pushes a message into the (chatID, topicID) conversation and returns
// the echo record the gateway logged for it.
func (c *Client) Send(ctx context.Context, chatID, topicID, message string) (bus.Message, error) {
	payload, err := json.Marshal(map[string]string{
		"chatId":  chatID,
		"topicId": topicID,
		"message": message,
	})
	if err != nil {
		return bus.Message{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/telegram/send", payload)
	if err != nil {
		return bus.Message{}, err
	}

	var resp struct {
		Success     bool        `json:"success"`
		SentMessage bus.Message `json:"sentMessage"`
	}
	if err := c.do(req, &resp); err != nil {
		return bus.Message{}, err
	}
	return resp.SentMessage, nil
}

// Drain fetches and consumes every pending mailbox message.
func (c *Client) Drain(ctx context.Context) ([]bus.Message, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/telegram/messages", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Messages []bus.Message `json:"messages"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// FetchConfig loads the gateway's configuration record. Clients read the
// relay section from it at session start.
func (c *Client) FetchConfig(ctx context.Context) (*config.Config, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/config", nil)
	if err != nil {
		return nil, err
	}

	var cfg config.Config
	if err := c.do(req, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
