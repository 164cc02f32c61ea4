// Package dispatch delivers approved responses through the outbound email
// webhook.
package dispatch

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

// ErrNotConfigured is returned when no dispatch URL is set.
var ErrNotConfigured = errors.New("dispatch: webhook url not configured")

// Error describes a failed delivery attempt. StatusCode is zero when the
// webhook could not be reached.
type Error struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("dispatch: request failed: %v", e.Err)
	}
	return fmt.Sprintf("dispatch: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the payload the webhook expects.
type Message struct {
	TicketID  string `json:"ticketId"`
	To        string `json:"to"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Sender is implemented by Client; services depend on this.
type Sender interface {
	Send(ctx context.Context, msg Message, idempotencyKey string) error
}

// Client posts messages to the dispatch webhook.
type Client struct {
	url    string
	secret string
	client *http.Client
}

// NewClient constructs a Client. A nil httpClient gets one bounded by timeout.
func NewClient(url, secret string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{url: strings.TrimSpace(url), secret: secret, client: httpClient}
}

// Send posts msg once. The receiver can use idempotencyKey to drop
// duplicates of the same approval.
func (c *Client) Send(ctx context.Context, msg Message, idempotencyKey string) error {
	if c == nil || c.url == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("dispatch: encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("dispatch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-webhook-secret", c.secret)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &Error{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return nil
}
