package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/store"
	"github.com/lettingshq/onboard/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedInvitation(t *testing.T, s *Store, status domain.InvitationStatus) domain.Invitation {
	t.Helper()

	now := time.Now().UTC()
	inv := domain.Invitation{
		ID:          idx.New().String(),
		Email:       "alice@example.com",
		InviteeName: "Alice",
		Type:        domain.InvitationTypeOwner,
		Status:      status,
		InvitedBy:   "01ADMIN",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func seedToken(t *testing.T, s *Store, invitationID string, expiresAt time.Time) domain.OnboardingToken {
	t.Helper()

	now := time.Now().UTC()
	tok := domain.OnboardingToken{
		ID:           idx.New().String(),
		Token:        "tok-" + idx.New().String(),
		Email:        "alice@example.com",
		UserType:     domain.InvitationTypeOwner,
		InvitationID: invitationID,
		Metadata:     map[string]string{domain.MetaInviteeName: "Alice"},
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}
	require.NoError(t, s.Tokens().CreateToken(context.Background(), tok))
	return tok
}

func TestInvitationRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	inv := seedInvitation(t, s, domain.StatusPending)

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.Email, got.Email)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Zero(t, got.ReminderCount)
	require.Nil(t, got.AcceptedAt)

	_, err = s.Invitations().GetInvitationByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkInvitationAcceptedIsConditional(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := seedInvitation(t, s, domain.StatusPending)

	require.NoError(t, s.Invitations().MarkInvitationAccepted(ctx, inv.ID, "01USER", now))

	// Second transition finds no pending row.
	err := s.Invitations().MarkInvitationAccepted(ctx, inv.ID, "01OTHER", now)
	require.ErrorIs(t, err, store.ErrStale)

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, got.Status)
	require.Equal(t, "01USER", got.AcceptedBy)
	require.NotNil(t, got.AcceptedAt)
}

func TestIncrementReminderCountCapsInSQL(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := seedInvitation(t, s, domain.StatusPending)

	for want := 1; want <= domain.MaxReminders; want++ {
		count, err := s.Invitations().IncrementReminderCount(ctx, inv.ID, domain.MaxReminders, now)
		require.NoError(t, err)
		require.Equal(t, want, count)
	}

	_, err := s.Invitations().IncrementReminderCount(ctx, inv.ID, domain.MaxReminders, now)
	require.ErrorIs(t, err, store.ErrStale)

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MaxReminders, got.ReminderCount)
}

func TestIncrementReminderCountRequiresPending(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	inv := seedInvitation(t, s, domain.StatusDeclined)

	_, err := s.Invitations().IncrementReminderCount(ctx, inv.ID, domain.MaxReminders, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrStale)
}

func TestMarkTokenUsedCompareAndSet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := seedInvitation(t, s, domain.StatusPending)
	tok := seedToken(t, s, inv.ID, now.Add(time.Hour))

	require.NoError(t, s.Tokens().MarkTokenUsed(ctx, tok.ID, "01USER", now))
	require.ErrorIs(t, s.Tokens().MarkTokenUsed(ctx, tok.ID, "01OTHER", now), store.ErrStale)

	got, err := s.Tokens().GetTokenByValue(ctx, tok.Token)
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)
	require.Equal(t, "01USER", got.UsedBy)
}

func TestGetLiveTokenByInvitation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := seedInvitation(t, s, domain.StatusPending)

	t.Run("none issued", func(t *testing.T) {
		_, err := s.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expired token is not live", func(t *testing.T) {
		seedToken(t, s, inv.ID, now.Add(-time.Minute))
		_, err := s.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("live token round trips metadata", func(t *testing.T) {
		tok := seedToken(t, s, inv.ID, now.Add(time.Hour))
		got, err := s.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
		require.NoError(t, err)
		require.Equal(t, tok.ID, got.ID)
		require.Equal(t, "Alice", got.Metadata[domain.MetaInviteeName])
	})

	t.Run("used token is not live", func(t *testing.T) {
		got, err := s.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
		require.NoError(t, err)
		require.NoError(t, s.Tokens().MarkTokenUsed(ctx, got.ID, "01USER", now))

		_, err = s.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestExpireLapsedInvitations(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	lapsed := seedInvitation(t, s, domain.StatusPending)
	seedToken(t, s, lapsed.ID, now.Add(-time.Hour))

	fresh := seedInvitation(t, s, domain.StatusPending)
	seedToken(t, s, fresh.ID, now.Add(time.Hour))

	n, err := s.Invitations().ExpireLapsedInvitations(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.Invitations().GetInvitationByID(ctx, lapsed.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, got.Status)

	got, err = s.Invitations().GetInvitationByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)

	// Idempotent: a second sweep finds nothing.
	n, err = s.Invitations().ExpireLapsedInvitations(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := seedInvitation(t, s, domain.StatusPending)
	tok := seedToken(t, s, inv.ID, now.Add(time.Hour))

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().MarkTokenUsed(ctx, tok.ID, "01USER", now); err != nil {
			return err
		}
		return store.ErrStale // force rollback after the token write
	})
	require.ErrorIs(t, err, store.ErrStale)

	got, err := s.Tokens().GetTokenByValue(ctx, tok.Token)
	require.NoError(t, err)
	require.Nil(t, got.UsedAt, "rolled-back tx must not consume the token")
}
