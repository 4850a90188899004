// Package notify delivers invitation emails through an ordered fallback chain
// of channels. The chain is attempted strictly in sequence and short-circuits
// on the first success; the terminal demo sink cannot fail, so dispatching can
// never block invitation creation or resends.
package notify

import (
	"context"

	"github.com/lettingshq/onboard/internal/onboard/domain"
)

// EmailType selects the rendering for a dispatch.
type EmailType string

const (
	EmailTypeFirstTime EmailType = "first-time"
	EmailTypeReminder  EmailType = "reminder"
)

// Message carries everything a channel needs to deliver one invitation email.
type Message struct {
	Email           string
	InviteeName     string
	InvitationType  domain.InvitationType
	PersonalMessage string
	InvitationToken string
	InviterName     string
	EmailType       EmailType
	AttemptCount    int // reminder attempt number; 0 for first-time sends
}

// Result is the normalized outcome of a dispatch. Success reports that some
// channel accepted the message — for the queue channel that means enqueued,
// not delivered. Method names the channel that succeeded, for observability.
type Result struct {
	Success bool   `json:"success"`
	Method  string `json:"method"`
	Demo    bool   `json:"demo"`
	TaskID  string `json:"task_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Channel is one delivery strategy in the fallback chain.
type Channel interface {
	// Name identifies the channel in results, logs, and metrics.
	Name() string

	// Send attempts delivery. A returned error means the dispatcher should
	// fall through to the next channel; a nil error means the returned Result
	// is terminal for this dispatch.
	Send(ctx context.Context, msg Message) (Result, error)
}
