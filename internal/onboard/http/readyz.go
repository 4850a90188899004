package http

import (
	"net/http"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/internal/onboard/store"
	"github.com/lettingshq/onboard/pkg/httpx"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
)

// ReadyzHandler is the readiness probe: it checks the database and the
// delivery worker fleet. A degraded fleet does not fail readiness — the
// fallback chain still delivers through the provider or the demo sink.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	queue *notify.Queue,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &onboardsdk.HealthChecks{
			Database: "ok",
			Notifier: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if health := queue.Health(); health.Status != "healthy" {
			checks.Notifier = "degraded: no active workers"
		}

		httpx.WriteJSON(w, statusCode, onboardsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
