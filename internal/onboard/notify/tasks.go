package notify

import (
	"sync"
	"time"
)

// TaskState is the lifecycle of a queued delivery.
type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// TaskStatus is the poll-friendly view of one queued delivery.
type TaskStatus struct {
	ID         string    `json:"id"`
	State      TaskState `json:"state"`
	Email      string    `json:"email"`
	Error      string    `json:"error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Done reports whether the task reached a terminal state.
func (s TaskStatus) Done() bool {
	return s.State == TaskSucceeded || s.State == TaskFailed
}

// retention bounds how long finished tasks stay pollable.
const taskRetention = time.Hour

// TaskTracker records the status of queued deliveries. Internally each task
// carries a done channel a caller can block on; the HTTP surface only exposes
// the polling view.
type TaskTracker struct {
	mu    sync.Mutex
	tasks map[string]*trackedTask

	// Now is overridable in tests. Nil means time.Now.
	Now func() time.Time
}

type trackedTask struct {
	status TaskStatus
	done   chan struct{}
}

func NewTaskTracker() *TaskTracker {
	return &TaskTracker{tasks: make(map[string]*trackedTask)}
}

func (t *TaskTracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now().UTC()
}

// Register records a new queued task and returns its done channel.
func (t *TaskTracker) Register(id, email string) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()

	tt := &trackedTask{
		status: TaskStatus{
			ID:         id,
			State:      TaskQueued,
			Email:      email,
			EnqueuedAt: t.now(),
		},
		done: make(chan struct{}),
	}
	t.tasks[id] = tt
	return tt.done
}

// Start marks a task as picked up by a worker.
func (t *TaskTracker) Start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tt, ok := t.tasks[id]; ok && tt.status.State == TaskQueued {
		tt.status.State = TaskRunning
	}
}

// Finish records the terminal state and closes the done channel.
func (t *TaskTracker) Finish(id string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tt, ok := t.tasks[id]
	if !ok || tt.status.Done() {
		return
	}

	tt.status.FinishedAt = t.now()
	if err != nil {
		tt.status.State = TaskFailed
		tt.status.Error = err.Error()
	} else {
		tt.status.State = TaskSucceeded
	}
	close(tt.done)
}

// Status returns the current view of a task.
func (t *TaskTracker) Status(id string) (TaskStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tt, ok := t.tasks[id]
	if !ok {
		return TaskStatus{}, false
	}
	return tt.status, true
}

// pruneLocked drops finished tasks past retention. Caller holds t.mu.
func (t *TaskTracker) pruneLocked() {
	cutoff := t.now().Add(-taskRetention)
	for id, tt := range t.tasks {
		if tt.status.Done() && tt.status.FinishedAt.Before(cutoff) {
			delete(t.tasks, id)
		}
	}
}
