// Package notify relays push notifications through the external webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrDisabled       = errors.New("notify: webhook not configured")
	ErrInvalidMessage = errors.New("notify: token, title and body are required")
)

type Message struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.Token) == "" ||
		strings.TrimSpace(m.Title) == "" ||
		strings.TrimSpace(m.Body) == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Envelope is the webhook's reply.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type DeliveryError struct {
	Status   int
	Envelope Envelope
}

func (e *DeliveryError) Error() string {
	reason := e.Envelope.Error
	if reason == "" {
		reason = http.StatusText(e.Status)
	}
	return fmt.Sprintf("notify: delivery failed (%d): %s", e.Status, reason)
}

type Sender interface {
	Send(ctx context.Context, m Message) (*Envelope, error)
}

type Client struct {
	url    string
	secret string
	http   *http.Client
}

func NewClient(url, secret string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		secret: secret,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

func (c *Client) Send(ctx context.Context, m Message) (*Envelope, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("notify: read response: %w", err)
	}

	var env Envelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("notify: decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 || !env.Success {
		return &env, &DeliveryError{Status: resp.StatusCode, Envelope: env}
	}

	return &env, nil
}
