package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/metrics"
	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/internal/onboard/service"
	"github.com/lettingshq/onboard/internal/onboard/store/drivers/sqlite"
	"github.com/lettingshq/onboard/pkg/jwtx"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "lettings-sessions"
	adminID    = "01ADMIN"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	server  *httptest.Server
	tracker *notify.TaskTracker
	queue   *notify.Queue
	tokens  *service.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.Default()
	tracker := notify.NewTaskTracker()
	queue := notify.NewQueue(&notify.LogSender{Logger: logger}, tracker, logger,
		"https://app.example.com", 2, 8)
	queue.Start()
	t.Cleanup(queue.Stop)

	sink := &notify.DemoSink{Logger: logger, BaseURL: "https://app.example.com"}
	dispatcher := notify.NewDispatcher(logger, nil, queue, sink)

	tokens := service.NewTokenService(st, logger)
	invitations := service.NewInvitationService(st, tokens, dispatcher, logger, nil)
	reminders := service.NewReminderService(st, dispatcher, logger, nil)

	verifier := jwtx.NewHS256Verifier(testSecret, testIssuer)
	router := NewRouter(verifier, "test", st, metrics.New(), logger)
	router.TokenService = tokens
	router.InvitationService = invitations
	router.ReminderService = reminders
	router.Tracker = tracker
	router.Queue = queue
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, tracker: tracker, queue: queue, tokens: tokens}
}

func mintSession(t *testing.T, sub, name, scope string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"name":  name,
		"iss":   testIssuer,
		"scope": scope,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) adminClient(t *testing.T) *onboardsdk.Client {
	t.Helper()

	c := onboardsdk.NewClient(e.server.URL)
	c.AccessToken = mintSession(t, adminID, "Bob", "invites:read invites:write")
	return c
}

func (e *testEnv) publicClient() *onboardsdk.Client {
	return onboardsdk.NewClient(e.server.URL)
}

func createInvitation(t *testing.T, c *onboardsdk.Client) *onboardsdk.CreateInvitationResponse {
	t.Helper()

	created, err := c.CreateInvitation(context.Background(), onboardsdk.CreateInvitationRequest{
		Email:           "alice@example.com",
		InviteeName:     "Alice",
		InvitationType:  "owner",
		PersonalMessage: "Join us",
	})
	require.NoError(t, err)
	return created
}

// issuedToken digs the raw onboarding token out of storage for tests that
// drive the public endpoints: the API never echoes the token back to admins.
func (e *testEnv) issuedToken(t *testing.T, invitationID string) string {
	t.Helper()

	tok, err := e.tokens.LiveToken(context.Background(), invitationID)
	require.NoError(t, err)
	return tok.Token
}

func TestInvitationLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	public := env.publicClient()

	created := createInvitation(t, admin)
	require.Equal(t, "pending", created.Invitation.Status)
	require.Equal(t, adminID, created.Invitation.InvitedBy)
	require.True(t, created.Delivery.Success)
	require.Equal(t, notify.MethodQueue, created.Delivery.Method)
	require.NotEmpty(t, created.Delivery.TaskID)

	raw := env.issuedToken(t, created.Invitation.ID)

	// Validate previews without consuming.
	preview, err := public.ValidateToken(ctx, raw)
	require.NoError(t, err)
	require.True(t, preview.Valid)
	require.Equal(t, "alice@example.com", preview.Email)
	require.Equal(t, "Bob", preview.InviterName)
	require.Equal(t, "Join us", preview.PersonalMessage)

	// Accept consumes the token.
	resp, err := public.AcceptInvitation(ctx, onboardsdk.RespondRequest{Token: raw, UserID: "01USER"})
	require.NoError(t, err)
	require.Equal(t, "accepted", resp.Invitation.Status)
	require.Equal(t, "01USER", resp.Invitation.AcceptedBy)
	require.NotEmpty(t, resp.Invitation.AcceptedAt)

	// A second accept conflicts on the invitation's resolved state.
	_, err = public.AcceptInvitation(ctx, onboardsdk.RespondRequest{Token: raw})
	requireAPIError(t, err, http.StatusConflict, onboardsdk.ErrorCodeInvalidState)

	// Admin sees the final state.
	got, err := admin.GetInvitation(ctx, created.Invitation.ID)
	require.NoError(t, err)
	require.Equal(t, "accepted", got.Status)
}

func TestDeclineOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	created := createInvitation(t, admin)
	raw := env.issuedToken(t, created.Invitation.ID)

	resp, err := env.publicClient().DeclineInvitation(ctx, onboardsdk.RespondRequest{Token: raw})
	require.NoError(t, err)
	require.Equal(t, "declined", resp.Invitation.Status)
}

func TestResendOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	created := createInvitation(t, admin)

	for want := 1; want <= domain.MaxReminders; want++ {
		receipt, err := admin.ResendInvitation(ctx, created.Invitation.ID)
		require.NoError(t, err)
		require.Equal(t, want, receipt.ReminderCount)
		require.Equal(t, want < domain.MaxReminders, receipt.CanSendMore)
	}

	_, err := admin.ResendInvitation(ctx, created.Invitation.ID)
	requireAPIError(t, err, http.StatusConflict, onboardsdk.ErrorCodeReminderLimit)
}

func TestResendByEmailOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	createInvitation(t, admin)

	receipt, err := admin.ResendByEmail(ctx, onboardsdk.ResendRequest{
		Email:          "alice@example.com",
		InvitationType: "owner",
	})
	require.NoError(t, err)
	require.Equal(t, 1, receipt.ReminderCount)

	_, err = admin.ResendByEmail(ctx, onboardsdk.ResendRequest{
		Email:          "nobody@example.com",
		InvitationType: "owner",
	})
	requireAPIError(t, err, http.StatusNotFound, onboardsdk.ErrorCodeNotFound)
}

func TestValidateUnknownTokenOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.publicClient().ValidateToken(context.Background(), "bogus")
	requireAPIError(t, err, http.StatusNotFound, onboardsdk.ErrorCodeNotFound)
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.publicClient().CreateInvitation(ctx, onboardsdk.CreateInvitationRequest{
		Email:          "alice@example.com",
		InvitationType: "owner",
	})
	requireStatus(t, err, http.StatusUnauthorized)

	// A read-only session cannot create.
	readOnly := onboardsdk.NewClient(env.server.URL)
	readOnly.AccessToken = mintSession(t, adminID, "Bob", "invites:read")
	_, err = readOnly.CreateInvitation(ctx, onboardsdk.CreateInvitationRequest{
		Email:          "alice@example.com",
		InvitationType: "owner",
	})
	requireStatus(t, err, http.StatusForbidden)
}

func TestListInvitationsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	created := createInvitation(t, admin)

	list, err := admin.ListInvitations(ctx)
	require.NoError(t, err)
	require.Len(t, list.Invitations, 1)
	require.Equal(t, created.Invitation.ID, list.Invitations[0].ID)
}

func TestTaskStatusAndFleetHealth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminClient(t)
	created := createInvitation(t, admin)
	require.NotEmpty(t, created.Delivery.TaskID)

	require.Eventually(t, func() bool {
		status, err := admin.GetTaskStatus(ctx, created.Delivery.TaskID)
		return err == nil && status.State == string(notify.TaskSucceeded)
	}, time.Second, 10*time.Millisecond)

	_, err := admin.GetTaskStatus(ctx, "missing")
	requireAPIError(t, err, http.StatusNotFound, onboardsdk.ErrorCodeNotFound)

	health, err := admin.GetFleetHealth(ctx)
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, 2, health.ActiveWorkers)
}

func TestHealthProbes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.publicClient()

	live, err := c.Livez(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.Readyz(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Notifier)
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()

	var apiErr *onboardsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	var apiErr *onboardsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
}
