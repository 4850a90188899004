package notify

import (
	"context"
	"log/slog"

	"github.com/lettingshq/onboard/internal/onboard/metrics"
)

// Dispatcher walks an ordered channel chain until one accepts the message.
// With a DemoSink as the final channel, Send always returns a successful
// Result; delivery trouble is visible in logs and metrics, never to the
// invitation flow.
type Dispatcher struct {
	chain   []Channel
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(logger *slog.Logger, m *metrics.Metrics, chain ...Channel) *Dispatcher {
	return &Dispatcher{
		chain:   chain,
		logger:  logger,
		metrics: m,
	}
}

// Send tries each channel in order and returns the first success. If every
// channel fails (a misconfigured chain without a terminal sink), the Result
// reports the last error rather than surfacing it to the caller.
func (d *Dispatcher) Send(ctx context.Context, msg Message) Result {
	var last Result
	for _, ch := range d.chain {
		res, err := ch.Send(ctx, msg)
		if err == nil {
			d.metrics.ObserveDispatch(ch.Name(), true)
			d.logger.InfoContext(ctx, "dispatch succeeded",
				"method", ch.Name(),
				"to", msg.Email,
				"email_type", string(msg.EmailType),
				"demo", res.Demo,
			)
			return res
		}

		d.metrics.ObserveDispatch(ch.Name(), false)
		d.logger.WarnContext(ctx, "dispatch channel failed, falling through",
			"method", ch.Name(),
			"to", msg.Email,
			"error", err,
		)
		last = Result{Method: ch.Name(), Error: err.Error()}
	}
	return last
}
