package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/metrics"
	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/internal/onboard/store"
)

// ReminderService resends invitation emails under a hard cap of
// domain.MaxReminders per invitation. The counter increments before dispatch,
// so a reminder absorbed by the demo sink still spends an attempt.
type ReminderService struct {
	store      store.Store
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// Now is overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func NewReminderService(
	s store.Store,
	dispatcher Dispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *ReminderService {
	return &ReminderService{
		store:      s,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
	}
}

func (s *ReminderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Receipt reports a resend: the counter after this attempt and whether more
// reminders remain.
type Receipt struct {
	Invitation    domain.Invitation
	ReminderCount int
	CanSendMore   bool
	Delivery      notify.Result
}

// Resend sends one reminder for a pending invitation. Checks run in a fixed
// order — existence, then state, then the cap — so callers get the most
// specific error.
func (s *ReminderService) Resend(ctx context.Context, invitationID string) (Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	inv, err := s.store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Receipt{}, ErrInvitationNotFound
		}
		return Receipt{}, mapTimeout(err)
	}
	return s.resend(ctx, inv)
}

// ResendByEmail resolves the pending invitation for an email/role pair and
// sends one reminder.
func (s *ReminderService) ResendByEmail(
	ctx context.Context,
	email string,
	t domain.InvitationType,
) (Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if !t.Valid() {
		return Receipt{}, fmt.Errorf("%w: unknown invitation type %q", ErrInvalidRequest, t)
	}

	inv, err := s.store.Invitations().GetPendingInvitationByEmail(ctx, email, t)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Receipt{}, ErrInvitationNotFound
		}
		return Receipt{}, mapTimeout(err)
	}
	return s.resend(ctx, inv)
}

func (s *ReminderService) resend(ctx context.Context, inv domain.Invitation) (Receipt, error) {
	if inv.Status.Terminal() {
		return Receipt{}, ErrInvalidState
	}
	if inv.ReminderCount >= domain.MaxReminders {
		return Receipt{}, ErrReminderLimitExceeded
	}

	now := s.now()

	// Reminders re-render the original accept link, so the token must still
	// be live. A lapsed token means the sweep just hasn't caught up yet.
	tok, err := s.store.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Receipt{}, ErrTokenExpired
		}
		return Receipt{}, mapTimeout(err)
	}

	// The increment is the authoritative gate: it re-checks pending status
	// and the cap inside the database, closing the race between two
	// concurrent resends.
	count, err := s.store.Invitations().IncrementReminderCount(ctx, inv.ID, domain.MaxReminders, now)
	if err != nil {
		if errors.Is(err, store.ErrStale) {
			return Receipt{}, s.classifyStaleIncrement(ctx, inv.ID)
		}
		return Receipt{}, mapTimeout(err)
	}

	delivery := s.dispatcher.Send(ctx, notify.Message{
		Email:           inv.Email,
		InviteeName:     inv.InviteeName,
		InvitationType:  inv.Type,
		PersonalMessage: inv.PersonalMessage,
		InvitationToken: tok.Token,
		InviterName:     tok.Metadata[domain.MetaInviterName],
		EmailType:       notify.EmailTypeReminder,
		AttemptCount:    count,
	})

	s.metrics.ObserveReminder()
	s.logger.InfoContext(ctx, "reminder sent",
		"invitation_id", inv.ID,
		"reminder_count", count,
		"method", delivery.Method,
	)

	inv.ReminderCount = count
	return Receipt{
		Invitation:    inv,
		ReminderCount: count,
		CanSendMore:   count < domain.MaxReminders,
		Delivery:      delivery,
	}, nil
}

// classifyStaleIncrement re-reads the invitation to turn a failed conditional
// increment into the precise domain error.
func (s *ReminderService) classifyStaleIncrement(ctx context.Context, id string) error {
	inv, err := s.store.Invitations().GetInvitationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		return mapTimeout(err)
	}
	if inv.Status.Terminal() {
		return ErrInvalidState
	}
	return ErrReminderLimitExceeded
}
