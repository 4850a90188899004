package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lettingshq/onboard/pkg/idx"
)

// MethodQueue is reported when a message was accepted by the worker fleet.
const MethodQueue = "queue"

const sendTimeout = 10 * time.Second

// FleetHealth is the operator view of the queue channel.
type FleetHealth struct {
	Status        string `json:"status"` // "healthy" or "degraded"
	ActiveWorkers int    `json:"active_workers"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

// Queue is the preferred channel of the fallback chain: a fixed worker fleet
// draining a buffered task channel. Send succeeds when the message is
// accepted, not when it is delivered; callers poll the tracker for the
// delivery outcome.
type Queue struct {
	sender  Sender
	tracker *TaskTracker
	logger  *slog.Logger
	baseURL string

	workers int
	tasks   chan queuedTask
	active  atomic.Int32

	wg      sync.WaitGroup
	started atomic.Bool
	closed  atomic.Bool
	stopMu  sync.Mutex
}

type queuedTask struct {
	id    string
	email Email
}

func NewQueue(sender Sender, tracker *TaskTracker, logger *slog.Logger, baseURL string, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer <= 0 {
		buffer = workers * 4
	}
	return &Queue{
		sender:  sender,
		tracker: tracker,
		logger:  logger,
		baseURL: baseURL,
		workers: workers,
		tasks:   make(chan queuedTask, buffer),
	}
}

// Start launches the worker fleet. Safe to call once.
func (q *Queue) Start() {
	if !q.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop closes intake and drains the remaining buffered tasks.
func (q *Queue) Stop() {
	q.stopMu.Lock()
	defer q.stopMu.Unlock()

	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	close(q.tasks)
	q.wg.Wait()
}

func (q *Queue) worker(n int) {
	defer q.wg.Done()
	q.active.Add(1)
	defer q.active.Add(-1)

	for task := range q.tasks {
		q.tracker.Start(task.id)

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := q.sender.SendEmail(ctx, task.email)
		cancel()

		q.tracker.Finish(task.id, err)
		if err != nil {
			q.logger.Error("queued delivery failed",
				"worker", n, "task_id", task.id, "to", task.email.To, "error", err)
			continue
		}
		q.logger.Debug("queued delivery succeeded",
			"worker", n, "task_id", task.id, "to", task.email.To)
	}
}

func (q *Queue) Name() string { return MethodQueue }

// Send renders the message and hands it to the fleet. It fails, letting the
// dispatcher fall through, when no workers are running or the buffer is full.
func (q *Queue) Send(_ context.Context, msg Message) (Result, error) {
	// Holding stopMu keeps Stop from closing the channel mid-send.
	q.stopMu.Lock()
	defer q.stopMu.Unlock()

	if q.closed.Load() || q.active.Load() == 0 {
		return Result{}, fmt.Errorf("queue: no active workers")
	}

	task := queuedTask{
		id:    idx.New().String(),
		email: Render(msg, q.baseURL),
	}
	q.tracker.Register(task.id, msg.Email)

	select {
	case q.tasks <- task:
		return Result{
			Success: true,
			Method:  MethodQueue,
			TaskID:  task.id,
		}, nil
	default:
		q.tracker.Finish(task.id, fmt.Errorf("queue buffer full"))
		return Result{}, fmt.Errorf("queue: buffer full (%d tasks)", cap(q.tasks))
	}
}

// Health reports the fleet state for the readiness and health surfaces.
func (q *Queue) Health() FleetHealth {
	h := FleetHealth{
		ActiveWorkers: int(q.active.Load()),
		QueueDepth:    len(q.tasks),
		QueueCapacity: cap(q.tasks),
	}
	if h.ActiveWorkers > 0 && !q.closed.Load() {
		h.Status = "healthy"
	} else {
		h.Status = "degraded"
	}
	return h
}
