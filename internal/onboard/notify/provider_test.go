package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProviderSendsAuthorizedPayload(t *testing.T) {
	t.Parallel()

	var got providerPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := &Provider{
		APIKey:   "key123",
		Endpoint: srv.URL,
		From:     "noreply@lettingshq.example",
		BaseURL:  "https://app.example.com",
	}

	res, err := p.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, MethodProvider, res.Method)

	require.Equal(t, "Bearer key123", auth)
	require.Equal(t, "alice@example.com", got.To)
	require.Equal(t, "noreply@lettingshq.example", got.From)
	require.Contains(t, got.HTMLBody, "onboarding/accept?token=tok123")
	require.Contains(t, got.TextBody, "expires 7 days")
}

func TestProviderFailsOnErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &Provider{APIKey: "key123", Endpoint: srv.URL, BaseURL: "https://app.example.com"}

	_, err := p.Send(context.Background(), testMessage())
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.Contains(t, err.Error(), "quota exceeded")
}

func TestProviderFailsWhenUnconfigured(t *testing.T) {
	t.Parallel()

	p := &Provider{}
	require.False(t, p.Configured())

	_, err := p.Send(context.Background(), testMessage())
	require.Error(t, err)
}
