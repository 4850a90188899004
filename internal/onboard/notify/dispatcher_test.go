package notify

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/stretchr/testify/require"
)

type stubChannel struct {
	name  string
	fail  bool
	calls int
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Send(_ context.Context, _ Message) (Result, error) {
	c.calls++
	if c.fail {
		return Result{}, fmt.Errorf("%s: unavailable", c.name)
	}
	return Result{Success: true, Method: c.name}, nil
}

func testMessage() Message {
	return Message{
		Email:           "alice@example.com",
		InviteeName:     "Alice",
		InvitationType:  domain.InvitationTypeOwner,
		InvitationToken: "tok123",
		InviterName:     "Bob",
		EmailType:       EmailTypeFirstTime,
	}
}

func TestDispatcherShortCircuitsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	first := &stubChannel{name: "queue"}
	second := &stubChannel{name: "provider"}
	d := NewDispatcher(slog.Default(), nil, first, second)

	res := d.Send(context.Background(), testMessage())
	require.True(t, res.Success)
	require.Equal(t, "queue", res.Method)
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls, "later channels must not be attempted")
}

func TestDispatcherFallsThroughToDemoSink(t *testing.T) {
	t.Parallel()

	queue := &stubChannel{name: "queue", fail: true}
	provider := &stubChannel{name: "provider", fail: true}
	sink := &DemoSink{Logger: slog.Default(), BaseURL: "https://app.example.com"}
	d := NewDispatcher(slog.Default(), nil, queue, provider, sink)

	res := d.Send(context.Background(), testMessage())
	require.True(t, res.Success)
	require.Equal(t, MethodDemoSink, res.Method)
	require.True(t, res.Demo)
	require.Equal(t, 1, queue.calls)
	require.Equal(t, 1, provider.calls)
}

func TestDispatcherReportsLastFailureWithoutTerminalSink(t *testing.T) {
	t.Parallel()

	queue := &stubChannel{name: "queue", fail: true}
	provider := &stubChannel{name: "provider", fail: true}
	d := NewDispatcher(slog.Default(), nil, queue, provider)

	res := d.Send(context.Background(), testMessage())
	require.False(t, res.Success)
	require.Equal(t, "provider", res.Method)
	require.Contains(t, res.Error, "unavailable")
}
