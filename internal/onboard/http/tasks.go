package http

import (
	"net/http"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/pkg/httpx"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
)

// TasksHandler exposes queued delivery tasks and the worker fleet.
type TasksHandler struct {
	Tracker *notify.TaskTracker
	Queue   *notify.Queue
}

// HandleStatus serves GET /v1/tasks/{id}.
func (h *TasksHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.Tracker.Status(r.PathValue("id"))
	if !ok {
		onboardsdk.NewAPIError(http.StatusNotFound,
			onboardsdk.ErrorCodeNotFound, "unknown task").WriteError(w)
		return
	}

	out := onboardsdk.TaskStatusResponse{
		ID:         status.ID,
		State:      string(status.State),
		Email:      status.Email,
		Error:      status.Error,
		EnqueuedAt: status.EnqueuedAt.Format(time.RFC3339),
	}
	if !status.FinishedAt.IsZero() {
		out.FinishedAt = status.FinishedAt.Format(time.RFC3339)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleFleetHealth serves GET /v1/notify/health.
func (h *TasksHandler) HandleFleetHealth(w http.ResponseWriter, r *http.Request) {
	health := h.Queue.Health()
	httpx.WriteJSON(w, http.StatusOK, onboardsdk.FleetHealthResponse{
		Status:        health.Status,
		ActiveWorkers: health.ActiveWorkers,
		QueueDepth:    health.QueueDepth,
		QueueCapacity: health.QueueCapacity,
	})
}
