// Package service implements the invitation lifecycle: issuing tokens,
// walking the one-directional state machine, throttled reminders, and the
// expiry sweep. Handlers translate these errors to HTTP; nothing below this
// layer knows about transports.
package service

import "errors"

var (
	// ErrInvalidRequest flags malformed caller input (bad email, unknown role,
	// missing fields).
	ErrInvalidRequest = errors.New("service: invalid request")

	// ErrInvitationNotFound is returned when the referenced invitation does
	// not exist.
	ErrInvitationNotFound = errors.New("service: invitation not found")

	// ErrInvalidState is returned when an operation requires a pending
	// invitation but the invitation already reached a terminal status.
	ErrInvalidState = errors.New("service: invitation is not pending")

	// ErrTokenNotFound is returned when no token matches the presented value.
	ErrTokenNotFound = errors.New("service: unknown onboarding token")

	// ErrTokenExpired is returned when the token's 7-day lifetime has lapsed.
	ErrTokenExpired = errors.New("service: onboarding token expired")

	// ErrTokenAlreadyUsed is returned when the single-use token was already
	// consumed, including by a concurrent accept/decline that won the race.
	ErrTokenAlreadyUsed = errors.New("service: onboarding token already used")

	// ErrReminderLimitExceeded is returned once an invitation has had its
	// three reminders.
	ErrReminderLimitExceeded = errors.New("service: reminder limit exceeded")

	// ErrActiveTokenExists is returned when issuing would leave an invitation
	// with two live tokens.
	ErrActiveTokenExists = errors.New("service: invitation already has a live token")

	// ErrTimeout is returned when an operation overran its deadline.
	ErrTimeout = errors.New("service: operation timed out")
)
