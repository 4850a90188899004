// Package onboardsdk is the Go client for the Lettings HQ onboarding
// service. Admin operations require a bearer token minted by the platform
// session service; the validate/accept/decline operations are public because
// the onboarding token itself is the credential.
package onboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a client for the onboarding service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// AccessToken is attached as a bearer credential to admin operations.
	// Leave empty for clients that only drive the public onboarding flow.
	AccessToken string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doJSON performs a request with an optional JSON body and decodes the JSON
// response into target. Non-2xx responses come back as *APIError.
func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	payload, target any,
	expectedStatus int,
) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateInvitation invites someone to the platform. Requires invites:write.
func (c *Client) CreateInvitation(
	ctx context.Context,
	req CreateInvitationRequest,
) (*CreateInvitationResponse, error) {
	var out CreateInvitationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/invitations", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvitations returns the caller's invitations, newest first.
// Requires invites:read.
func (c *Client) ListInvitations(ctx context.Context) (*ListInvitationsResponse, error) {
	var out ListInvitationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/invitations", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInvitation returns one invitation by id. Requires invites:read.
func (c *Client) GetInvitation(ctx context.Context, id string) (*Invitation, error) {
	var out Invitation
	path := "/v1/invitations/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendInvitation sends one reminder for a pending invitation by id.
// Requires invites:write.
func (c *Client) ResendInvitation(ctx context.Context, id string) (*ResendResponse, error) {
	var out ResendResponse
	path := "/v1/invitations/" + url.PathEscape(id) + "/resend"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendByEmail sends one reminder for the pending invitation matching an
// email and role. Requires invites:write.
func (c *Client) ResendByEmail(ctx context.Context, req ResendRequest) (*ResendResponse, error) {
	var out ResendResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/invitations/resend", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateToken previews the invitation behind an onboarding token without
// consuming it. Public.
func (c *Client) ValidateToken(ctx context.Context, token string) (*ValidateResponse, error) {
	var out ValidateResponse
	path := "/v1/onboarding/validate?token=" + url.QueryEscape(token)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvitation consumes the token and accepts the invitation. Public.
func (c *Client) AcceptInvitation(ctx context.Context, req RespondRequest) (*RespondResponse, error) {
	var out RespondResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/onboarding/accept", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeclineInvitation consumes the token and declines the invitation. Public.
func (c *Client) DeclineInvitation(ctx context.Context, req RespondRequest) (*RespondResponse, error) {
	var out RespondResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/onboarding/decline", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskStatus polls a queued delivery task. Requires invites:read.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	var out TaskStatusResponse
	path := "/v1/tasks/" + url.PathEscape(taskID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFleetHealth reports the delivery worker fleet. Requires invites:read.
func (c *Client) GetFleetHealth(ctx context.Context) (*FleetHealthResponse, error) {
	var out FleetHealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/notify/health", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Livez hits the liveness probe.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readyz hits the readiness probe.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
