package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Email
	fail bool
	gate chan struct{} // when non-nil, SendEmail blocks until closed
}

func (s *recordingSender) SendEmail(_ context.Context, email Email) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.sent = append(s.sent, email)
	s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("relay refused")
	}
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestQueueDeliversAndTracksTask(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	tracker := NewTaskTracker()
	q := NewQueue(sender, tracker, slog.Default(), "https://app.example.com", 2, 8)
	q.Start()
	defer q.Stop()

	res, err := q.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, MethodQueue, res.Method)
	require.NotEmpty(t, res.TaskID)

	status := waitForDone(t, tracker, res.TaskID)
	require.Equal(t, TaskSucceeded, status.State)
	require.Equal(t, "alice@example.com", status.Email)
	require.Equal(t, 1, sender.count())
}

func TestQueueRecordsSenderFailure(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{fail: true}
	tracker := NewTaskTracker()
	q := NewQueue(sender, tracker, slog.Default(), "https://app.example.com", 1, 4)
	q.Start()
	defer q.Stop()

	res, err := q.Send(context.Background(), testMessage())
	require.NoError(t, err, "acceptance succeeds even when delivery later fails")

	status := waitForDone(t, tracker, res.TaskID)
	require.Equal(t, TaskFailed, status.State)
	require.Contains(t, status.Error, "relay refused")
}

func TestQueueRejectsWhenBufferFull(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	sender := &recordingSender{gate: gate}
	tracker := NewTaskTracker()
	q := NewQueue(sender, tracker, slog.Default(), "https://app.example.com", 1, 1)
	q.Start()
	defer func() {
		close(gate)
		q.Stop()
	}()

	// First send occupies the single worker, second fills the buffer.
	_, err := q.Send(context.Background(), testMessage())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return q.Health().QueueDepth == 0
	}, time.Second, 5*time.Millisecond)
	_, err = q.Send(context.Background(), testMessage())
	require.NoError(t, err)

	_, err = q.Send(context.Background(), testMessage())
	require.Error(t, err)
	require.Contains(t, err.Error(), "buffer full")
}

func TestQueueRejectsAfterStop(t *testing.T) {
	t.Parallel()

	q := NewQueue(&recordingSender{}, NewTaskTracker(), slog.Default(), "https://app.example.com", 1, 4)
	q.Start()
	q.Stop()

	_, err := q.Send(context.Background(), testMessage())
	require.Error(t, err)

	h := q.Health()
	require.Equal(t, "degraded", h.Status)
	require.Zero(t, h.ActiveWorkers)
}

func TestQueueHealthHealthyWhileRunning(t *testing.T) {
	t.Parallel()

	q := NewQueue(&recordingSender{}, NewTaskTracker(), slog.Default(), "https://app.example.com", 3, 8)
	q.Start()
	defer q.Stop()

	require.Eventually(t, func() bool {
		h := q.Health()
		return h.Status == "healthy" && h.ActiveWorkers == 3
	}, time.Second, 5*time.Millisecond)
}

func TestTaskTrackerUnknownTask(t *testing.T) {
	t.Parallel()

	tracker := NewTaskTracker()
	_, ok := tracker.Status("nope")
	require.False(t, ok)
}

func waitForDone(t *testing.T, tracker *TaskTracker, id string) TaskStatus {
	t.Helper()

	require.Eventually(t, func() bool {
		status, ok := tracker.Status(id)
		return ok && status.Done()
	}, time.Second, 5*time.Millisecond)

	status, ok := tracker.Status(id)
	require.True(t, ok)
	return status
}
