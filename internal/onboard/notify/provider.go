package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MethodProvider is reported for direct transactional-provider sends.
const MethodProvider = "provider"

const (
	providerTimeout      = 10 * time.Second
	providerMaxReadBytes = 1 << 16
)

// Provider sends through a transactional email HTTP API. It is the middle
// link of the fallback chain: tried when the queue cannot accept work, and
// skipped entirely when no API key is configured.
type Provider struct {
	APIKey   string
	Endpoint string
	From     string
	BaseURL  string

	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
}

func (p *Provider) Name() string { return MethodProvider }

// Configured reports whether the channel can be attempted at all.
func (p *Provider) Configured() bool {
	return p.APIKey != "" && p.Endpoint != ""
}

type providerPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

func (p *Provider) Send(ctx context.Context, msg Message) (Result, error) {
	if !p.Configured() {
		return Result{}, fmt.Errorf("provider: no API key configured")
	}

	email := Render(msg, p.BaseURL)
	body, err := json.Marshal(providerPayload{
		From:     p.From,
		To:       email.To,
		Subject:  email.Subject,
		HTMLBody: email.HTML,
		TextBody: email.Text,
	})
	if err != nil {
		return Result{}, fmt.Errorf("provider: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: providerTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("provider: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, providerMaxReadBytes))
		return Result{}, fmt.Errorf("provider: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	return Result{
		Success: true,
		Method:  MethodProvider,
	}, nil
}
