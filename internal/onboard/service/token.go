package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/store"
	"github.com/lettingshq/onboard/pkg/cryptox"
	"github.com/lettingshq/onboard/pkg/idx"
)

// opTimeout bounds every externally triggered operation.
const opTimeout = 10 * time.Second

// TokenService issues and validates onboarding tokens. Tokens are single-use
// and expire a fixed 7 days after issue.
type TokenService struct {
	store  store.Store
	logger *slog.Logger

	// Now is overridable in tests. Nil means time.Now.
	Now func() time.Time
}

func NewTokenService(s store.Store, logger *slog.Logger) *TokenService {
	return &TokenService{store: s, logger: logger}
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// IssueToken mints a token for an invitation. It runs against the given store
// view so invitation creation can issue inside its own transaction; at most
// one live token may exist per invitation at any instant.
func (s *TokenService) IssueToken(
	ctx context.Context,
	sv store.Store,
	inv domain.Invitation,
	inviterName string,
) (domain.OnboardingToken, error) {
	now := s.now()

	_, err := sv.Tokens().GetLiveTokenByInvitation(ctx, inv.ID, now)
	switch {
	case err == nil:
		return domain.OnboardingToken{}, ErrActiveTokenExists
	case !errors.Is(err, store.ErrNotFound):
		return domain.OnboardingToken{}, fmt.Errorf("check live token: %w", err)
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.OnboardingToken{}, fmt.Errorf("generate token: %w", err)
	}

	tok := domain.OnboardingToken{
		ID:           idx.NewAt(now).String(),
		Token:        raw,
		Email:        inv.Email,
		UserType:     inv.Type,
		InvitationID: inv.ID,
		Metadata: map[string]string{
			domain.MetaInviteeName: inv.InviteeName,
			domain.MetaInviterName: inviterName,
		},
		ExpiresAt: now.Add(domain.TokenTTL),
		CreatedAt: now,
	}
	if err := sv.Tokens().CreateToken(ctx, tok); err != nil {
		return domain.OnboardingToken{}, fmt.Errorf("create token: %w", err)
	}

	s.logger.InfoContext(ctx, "onboarding token issued",
		"invitation_id", inv.ID,
		"token_id", tok.ID,
		"expires_at", tok.ExpiresAt,
	)
	return tok, nil
}

// LiveToken returns the current unused, unexpired token for an invitation.
func (s *TokenService) LiveToken(ctx context.Context, invitationID string) (domain.OnboardingToken, error) {
	tok, err := s.store.Tokens().GetLiveTokenByInvitation(ctx, invitationID, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OnboardingToken{}, ErrTokenNotFound
		}
		return domain.OnboardingToken{}, err
	}
	return tok, nil
}

// Validation is the preview returned before an invitee commits to a decision.
type Validation struct {
	Token      domain.OnboardingToken
	Invitation domain.Invitation
}

// Validate resolves a raw token value to its invitation without consuming it.
// The invitation's state outranks the token's own flags: responding to an
// already-resolved invitation is a state error, not a token error, while a
// swept invitation keeps reporting expiry.
func (s *TokenService) Validate(ctx context.Context, raw string) (Validation, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if raw == "" {
		return Validation{}, fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	tok, err := s.store.Tokens().GetTokenByValue(ctx, raw)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Validation{}, ErrTokenNotFound
		}
		return Validation{}, mapTimeout(fmt.Errorf("lookup token: %w", err))
	}

	inv, err := s.store.Invitations().GetInvitationByID(ctx, tok.InvitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Validation{}, ErrInvitationNotFound
		}
		return Validation{}, mapTimeout(fmt.Errorf("lookup invitation: %w", err))
	}

	switch {
	case inv.Status == domain.StatusExpired:
		return Validation{}, ErrTokenExpired
	case inv.Status.Terminal():
		return Validation{}, ErrInvalidState
	}

	if tok.UsedAt != nil {
		return Validation{}, ErrTokenAlreadyUsed
	}
	if !tok.ExpiresAt.After(s.now()) {
		return Validation{}, ErrTokenExpired
	}

	return Validation{Token: tok, Invitation: inv}, nil
}

// mapTimeout converts deadline overruns into the service-level sentinel while
// leaving other errors intact.
func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
