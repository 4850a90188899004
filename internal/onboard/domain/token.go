package domain

import "time"

// TokenTTL is the fixed onboarding-token lifetime: every invitation link
// expires 7 days after issue.
const TokenTTL = 7 * 24 * time.Hour

// Metadata keys carried on a token so reminder emails can be reconstructed
// without re-reading the admin's session.
const (
	MetaInviteeName = "invitee_name"
	MetaInviterName = "inviter_name"
)

// OnboardingToken is the single-use, time-limited credential proving
// possession of an invitation link. The token value itself is stored (unique,
// unguessable) because reminder sends must re-render the accept URL.
type OnboardingToken struct {
	ID           string
	Token        string
	Email        string
	UserType     InvitationType
	InvitationID string
	Metadata     map[string]string
	ExpiresAt    time.Time
	UsedAt       *time.Time
	UsedBy       string // empty until used
	CreatedAt    time.Time
}

// Live reports whether the token can still be consumed: not yet used and not
// past its expiry at the given instant.
func (t OnboardingToken) Live(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}
