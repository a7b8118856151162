// Package client is the Go client for the Krishi Mitra API. It speaks
// the {"success": bool, ...} envelope, retries transient backend
// failures with the same backoff policy the backend uses against the
// model, and gives callers a pending-turn view for in-flight sends.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/krishimitra/krishi-agent/internal/diagnose"
	"github.com/krishimitra/krishi-agent/internal/retry"
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// ChatSummary mirrors one entry of GET /api/chat/all.
type ChatSummary struct {
	ID          string    `json:"chatId"`
	Title       string    `json:"title"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Turn mirrors one history entry.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

// Text concatenates the turn's part texts.
func (t Turn) Text() string {
	var b strings.Builder
	for _, p := range t.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	retryOpts []retry.Option
}

type Option func(*Client)

// WithHTTPClient injects the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryOptions sets the retry policy for API calls.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(c *Client) { c.retryOpts = opts }
}

// NewClient builds a client for the given server. token is the signed
// JWT the server issued at login; it rides as the "token" cookie.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do performs one API call through the retry policy. 401, 403 and 404
// are terminal: repeating the identical request cannot change the
// verdict. Other failures (5xx, transport errors) are retried with
// exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		return c.doOnce(ctx, method, path, body, out)
	}, c.retryOpts...)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return retry.Permanent(fmt.Errorf("encoding request: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "token", Value: c.token})

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&envelope)
		apiErr := &APIError{StatusCode: res.StatusCode, Message: envelope.Message}

		switch res.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
			return retry.Permanent(apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// CreateChat starts a new chat and returns its summary.
func (c *Client) CreateChat(ctx context.Context) (ChatSummary, error) {
	var res struct {
		Chat ChatSummary `json:"chat"`
	}
	err := c.do(ctx, http.MethodPost, "/api/chat/create", nil, &res)
	return res.Chat, err
}

// ListChats returns the caller's chats, newest first.
func (c *Client) ListChats(ctx context.Context) ([]ChatSummary, error) {
	var res struct {
		Chats []ChatSummary `json:"chats"`
	}
	err := c.do(ctx, http.MethodGet, "/api/chat/all", nil, &res)
	return res.Chats, err
}

// History returns the full turn list of a chat.
func (c *Client) History(ctx context.Context, chatID string) ([]Turn, error) {
	var res struct {
		History []Turn `json:"history"`
	}
	err := c.do(ctx, http.MethodGet, "/api/chat/history?chatId="+chatID, nil, &res)
	return res.History, err
}

// Send submits one message and returns the model's reply text.
func (c *Client) Send(ctx context.Context, chatID, message string) (string, error) {
	var res struct {
		Response string `json:"response"`
	}
	err := c.do(ctx, http.MethodPost, "/api/chat/send",
		map[string]string{"chatId": chatID, "message": message}, &res)
	return res.Response, err
}

// DeleteChat removes a chat the caller owns.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/delete?chatId="+chatID, nil, nil)
}

// AnalyzePlant submits a photo for diagnosis.
func (c *Client) AnalyzePlant(ctx context.Context, description string, image []byte, mimeType, language string) (diagnose.Diagnosis, error) {
	body := map[string]string{
		"description": description,
		"mimeType":    mimeType,
		"language":    language,
	}
	if len(image) > 0 {
		body["image"] = base64.StdEncoding.EncodeToString(image)
	}

	var res struct {
		Analysis diagnose.Diagnosis `json:"analysis"`
	}
	err := c.do(ctx, http.MethodPost, "/api/plant/analyze", body, &res)
	return res.Analysis, err
}

// SendTracked runs Send through a Conversation's pending-turn state:
// the message appears immediately as an optimistic turn, and on failure
// both the optimistic turn and its placeholder are rolled back.
func (c *Client) SendTracked(ctx context.Context, conv *Conversation, message string) (string, error) {
	if err := conv.Begin(message); err != nil {
		return "", err
	}

	reply, err := c.Send(ctx, conv.ChatID(), message)
	if err != nil {
		conv.Fail()
		return "", err
	}
	conv.Complete(reply)
	return reply, nil
}
