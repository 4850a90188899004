package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/metrics"
	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/internal/onboard/store"
	"github.com/lettingshq/onboard/pkg/idx"
)

// Dispatcher is the slice of the notification chain the services need. It
// never returns an error: delivery trouble degrades to the demo sink rather
// than failing the invitation operation.
type Dispatcher interface {
	Send(ctx context.Context, msg notify.Message) notify.Result
}

// InvitationService drives invitations through their lifecycle. All status
// transitions are conditional writes: pending is the only state a transition
// may start from, and concurrent responders race on the token's single use.
type InvitationService struct {
	store      store.Store
	tokens     *TokenService
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// Now is overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func NewInvitationService(
	s store.Store,
	tokens *TokenService,
	dispatcher Dispatcher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *InvitationService {
	return &InvitationService{
		store:      s,
		tokens:     tokens,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
	}
}

func (s *InvitationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateParams carries admin input for a new invitation.
type CreateParams struct {
	Email           string
	InviteeName     string
	Type            domain.InvitationType
	PersonalMessage string
	InvitedBy       string // admin user id from the session
	InviterName     string // display name for the email
}

func (p CreateParams) validate() error {
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown invitation type %q", ErrInvalidRequest, p.Type)
	}
	if p.InvitedBy == "" {
		return fmt.Errorf("%w: inviter is required", ErrInvalidRequest)
	}
	return nil
}

// Created is the full outcome of a create: the persisted invitation and how
// the first-time email went out.
type Created struct {
	Invitation domain.Invitation
	Token      domain.OnboardingToken
	Delivery   notify.Result
}

// Create persists a new pending invitation with a fresh 7-day token and
// dispatches the first-time email. An existing pending invitation for the
// same email and role blocks the create.
func (s *InvitationService) Create(ctx context.Context, p CreateParams) (Created, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := p.validate(); err != nil {
		return Created{}, err
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))

	if _, err := s.store.Invitations().GetPendingInvitationByEmail(ctx, email, p.Type); err == nil {
		return Created{}, fmt.Errorf("%w: pending invitation exists for %s", ErrActiveTokenExists, email)
	} else if !errors.Is(err, store.ErrNotFound) {
		return Created{}, mapTimeout(fmt.Errorf("check pending invitation: %w", err))
	}

	now := s.now()
	inv := domain.Invitation{
		ID:              idx.NewAt(now).String(),
		Email:           email,
		InviteeName:     strings.TrimSpace(p.InviteeName),
		Type:            p.Type,
		Status:          domain.StatusPending,
		PersonalMessage: strings.TrimSpace(p.PersonalMessage),
		InvitedBy:       p.InvitedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var tok domain.OnboardingToken
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		var err error
		tok, err = s.tokens.IssueToken(ctx, tx, inv, p.InviterName)
		return err
	})
	if err != nil {
		return Created{}, mapTimeout(err)
	}

	s.metrics.ObserveTransition(string(domain.StatusPending))
	s.logger.InfoContext(ctx, "invitation created",
		"invitation_id", inv.ID,
		"type", string(inv.Type),
		"invited_by", inv.InvitedBy,
	)

	delivery := s.dispatcher.Send(ctx, notify.Message{
		Email:           inv.Email,
		InviteeName:     inv.InviteeName,
		InvitationType:  inv.Type,
		PersonalMessage: inv.PersonalMessage,
		InvitationToken: tok.Token,
		InviterName:     p.InviterName,
		EmailType:       notify.EmailTypeFirstTime,
	})

	return Created{Invitation: inv, Token: tok, Delivery: delivery}, nil
}

// Get returns one invitation by id.
func (s *InvitationService) Get(ctx context.Context, id string) (domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	inv, err := s.store.Invitations().GetInvitationByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, mapTimeout(err)
	}
	return inv, nil
}

// List returns the invitations an admin has issued, newest first.
func (s *InvitationService) List(ctx context.Context, invitedBy string) ([]domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	invs, err := s.store.Invitations().ListInvitationsByInviter(ctx, invitedBy)
	if err != nil {
		return nil, mapTimeout(err)
	}
	return invs, nil
}

// Accept consumes a token and transitions its invitation to accepted. Token
// consumption and the status transition commit atomically; a concurrent loser
// reports the token as already used, while a sequential retry against the
// resolved invitation is a state error.
func (s *InvitationService) Accept(ctx context.Context, rawToken, userID string) (domain.Invitation, error) {
	return s.respond(ctx, rawToken, userID, domain.StatusAccepted)
}

// Decline consumes a token and transitions its invitation to declined.
func (s *InvitationService) Decline(ctx context.Context, rawToken, userID string) (domain.Invitation, error) {
	return s.respond(ctx, rawToken, userID, domain.StatusDeclined)
}

// SweepExpired transitions every pending invitation whose token lapsed
// unused. Idempotent; returns the number of invitations expired.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.Invitations().ExpireLapsedInvitations(ctx, s.now())
	if err != nil {
		return 0, mapTimeout(err)
	}
	if n > 0 {
		s.metrics.ObserveExpired(n)
	}
	return n, nil
}

func (s *InvitationService) respond(
	ctx context.Context,
	rawToken, userID string,
	target domain.InvitationStatus,
) (domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	v, err := s.tokens.Validate(ctx, rawToken)
	if err != nil {
		return domain.Invitation{}, err
	}

	now := s.now()
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().MarkTokenUsed(ctx, v.Token.ID, userID, now); err != nil {
			return fmt.Errorf("consume token: %w", err)
		}
		switch target {
		case domain.StatusAccepted:
			err = tx.Invitations().MarkInvitationAccepted(ctx, v.Invitation.ID, userID, now)
		default:
			err = tx.Invitations().MarkInvitationDeclined(ctx, v.Invitation.ID, now)
		}
		if err != nil {
			return fmt.Errorf("transition invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		// A stale conditional write means another responder won the race
		// between our validation read and this transaction.
		if errors.Is(err, store.ErrStale) {
			return domain.Invitation{}, ErrTokenAlreadyUsed
		}
		return domain.Invitation{}, mapTimeout(err)
	}

	s.metrics.ObserveTransition(string(target))
	s.logger.InfoContext(ctx, "invitation resolved",
		"invitation_id", v.Invitation.ID,
		"status", string(target),
	)

	return s.Get(ctx, v.Invitation.ID)
}
