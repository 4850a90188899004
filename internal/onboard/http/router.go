package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/metrics"
	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/internal/onboard/service"
	"github.com/lettingshq/onboard/internal/onboard/store"
	"github.com/lettingshq/onboard/pkg/httpx"
	"github.com/lettingshq/onboard/pkg/jwtx"
	"github.com/lettingshq/onboard/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	metrics *metrics.Metrics

	TokenService      *service.TokenService
	InvitationService *service.InvitationService
	ReminderService   *service.ReminderService
	Tracker           *notify.TaskTracker
	Queue             *notify.Queue
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerInvitations()
	r.registerOnboarding()
	r.registerTasks()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{
		InvitationService: r.InvitationService,
		ReminderService:   r.ReminderService,
	}

	// POST /v1/invitations - admin write operation, moderate rate limit
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// GET /v1/invitations - admin read operation, moderate rate limit
	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:read"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// GET /v1/invitations/{id}
	securedGet := httpx.Chain(http.HandlerFunc(h.HandleGet),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:read"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// POST /v1/invitations/{id}/resend - reminder sends burn a capped
	// counter, keep these moderate
	securedResend := httpx.Chain(http.HandlerFunc(h.HandleResend),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// POST /v1/invitations/resend - resend by email/role pair
	securedResendByEmail := httpx.Chain(http.HandlerFunc(h.HandleResendByEmail),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:write"),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/invitations", securedCreate)
	r.Mux.Handle("GET /v1/invitations", securedList)
	r.Mux.Handle("GET /v1/invitations/{id}", securedGet)
	r.Mux.Handle("POST /v1/invitations/{id}/resend", securedResend)
	r.Mux.Handle("POST /v1/invitations/resend", securedResendByEmail)
}

func (r *Router) registerOnboarding() {
	h := &OnboardingHandler{
		TokenService:      r.TokenService,
		InvitationService: r.InvitationService,
	}

	// Public endpoints: the onboarding token is the credential, so strict
	// rate limits by IP keep token guessing expensive.
	r.Mux.Handle("GET /v1/onboarding/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/onboarding/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/onboarding/decline",
		httpx.Chain(http.HandlerFunc(h.HandleDecline),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTasks() {
	h := &TasksHandler{Tracker: r.Tracker, Queue: r.Queue}

	// GET /v1/tasks/{id} - admins poll queued deliveries, lenient limit
	securedStatus := httpx.Chain(http.HandlerFunc(h.HandleStatus),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:read"),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	// GET /v1/notify/health - fleet status for operators
	securedHealth := httpx.Chain(http.HandlerFunc(h.HandleFleetHealth),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope("invites:read"),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /v1/tasks/{id}", securedStatus)
	r.Mux.Handle("GET /v1/notify/health", securedHealth)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Queue),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
