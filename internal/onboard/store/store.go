package store

import (
	"context"
	"errors"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStale is returned by conditional updates that matched no rows: the
	// record moved out from under the caller (token consumed, invitation no
	// longer pending, reminder cap reached). Services map it to the precise
	// domain error by re-reading.
	ErrStale = errors.New("store: conditional update matched no rows")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Invitations() Invitations
	Tokens() Tokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back; otherwise it is
	// committed. This is the recommended way to run multi-step operations that
	// must be atomic (e.g. consuming a token and transitioning its invitation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invitations interface {
	// CreateInvitation inserts a new invitation (id is provided by app via ULID).
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByID returns an invitation by id.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetPendingInvitationByEmail returns the pending invitation for an
	// email/role pair, for resend-by-email.
	GetPendingInvitationByEmail(ctx context.Context, email string, t domain.InvitationType) (domain.Invitation, error)

	// ListInvitationsByInviter returns the invitations created by an admin,
	// newest first.
	ListInvitationsByInviter(ctx context.Context, invitedBy string) ([]domain.Invitation, error)

	// MarkInvitationAccepted transitions pending→accepted and records the
	// accepting actor. ErrStale when the invitation is no longer pending.
	MarkInvitationAccepted(ctx context.Context, id, acceptedBy string, at time.Time) error

	// MarkInvitationDeclined transitions pending→declined.
	// ErrStale when the invitation is no longer pending.
	MarkInvitationDeclined(ctx context.Context, id string, at time.Time) error

	// IncrementReminderCount bumps reminder_count by one, gated in SQL on
	// status == pending and reminder_count < limit, returning the new count.
	// ErrStale when the gate fails.
	IncrementReminderCount(ctx context.Context, id string, limit int, at time.Time) (int, error)

	// ExpireLapsedInvitations transitions every pending invitation whose token
	// expired unused at or before cutoff. Returns the number transitioned;
	// idempotent.
	ExpireLapsedInvitations(ctx context.Context, cutoff time.Time) (int64, error)
}

type Tokens interface {
	// CreateToken inserts a freshly issued token.
	CreateToken(ctx context.Context, t domain.OnboardingToken) error

	// GetTokenByValue returns a token by its raw value.
	GetTokenByValue(ctx context.Context, token string) (domain.OnboardingToken, error)

	// GetLiveTokenByInvitation returns the unused, unexpired token for an
	// invitation, if one exists.
	GetLiveTokenByInvitation(ctx context.Context, invitationID string, now time.Time) (domain.OnboardingToken, error)

	// MarkTokenUsed sets used_at/used_by only if used_at is currently unset
	// (compare-and-set, not a blind update). ErrStale when another caller
	// consumed the token first.
	MarkTokenUsed(ctx context.Context, id, usedBy string, at time.Time) error
}
