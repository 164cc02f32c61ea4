package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendTimeout = 10 * time.Second

// ResendMailer delivers through the Resend HTTP API.
type ResendMailer struct {
	url    string
	apiKey string
	from   string
	ttl    time.Duration
	client *http.Client
}

// NewResendMailer constructs a ResendMailer. A nil client gets a default
// one with a request timeout.
func NewResendMailer(url, apiKey, from string, codeTTL time.Duration, client *http.Client) *ResendMailer {
	if client == nil {
		client = &http.Client{Timeout: defaultResendTimeout}
	}
	return &ResendMailer{url: url, apiKey: apiKey, from: from, ttl: codeTTL, client: client}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) SendTwoFactorCode(ctx context.Context, to, code string) error {
	payload, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: codeSubject,
		HTML:    codeHTML(code, m.ttl),
	})
	if err != nil {
		return fmt.Errorf("resend: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
