package domain

import "time"

// InvitationType is the role the invitee is offered on the platform.
type InvitationType string

const (
	InvitationTypeAdmin InvitationType = "admin"
	InvitationTypeOwner InvitationType = "owner"
	InvitationTypeUser  InvitationType = "user"
)

// Valid reports whether t is one of the known invitation types.
func (t InvitationType) Valid() bool {
	switch t {
	case InvitationTypeAdmin, InvitationTypeOwner, InvitationTypeUser:
		return true
	}
	return false
}

// InvitationStatus tracks an invitation through its one-directional lifecycle:
// pending is the only non-terminal state.
type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusDeclined InvitationStatus = "declined"
	StatusExpired  InvitationStatus = "expired"
)

// Terminal reports whether no further transition may originate from s.
func (s InvitationStatus) Terminal() bool { return s != StatusPending }

// MaxReminders caps resends per invitation.
const MaxReminders = 3

type Invitation struct {
	ID              string
	Email           string
	InviteeName     string
	Type            InvitationType
	Status          InvitationStatus
	PersonalMessage string
	InvitedBy       string
	AcceptedBy      string // empty until accepted
	ReminderCount   int
	AcceptedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
