package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lettingshq/onboard/internal/onboard/service"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
)

// writeServiceError maps service-level errors onto the API error envelope.
// Anything unmapped is a 500 and gets logged; mapped errors are the caller's
// problem and stay out of the error log.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)

	case errors.Is(err, service.ErrInvitationNotFound):
		onboardsdk.NewAPIError(http.StatusNotFound,
			onboardsdk.ErrorCodeNotFound, "invitation not found").WriteError(w)

	case errors.Is(err, service.ErrTokenNotFound):
		onboardsdk.NewAPIError(http.StatusNotFound,
			onboardsdk.ErrorCodeNotFound, "unknown onboarding token").WriteError(w)

	case errors.Is(err, service.ErrTokenExpired):
		onboardsdk.NewAPIError(http.StatusGone,
			onboardsdk.ErrorCodeTokenExpired, "onboarding token has expired").WriteError(w)

	case errors.Is(err, service.ErrTokenAlreadyUsed):
		onboardsdk.NewAPIError(http.StatusConflict,
			onboardsdk.ErrorCodeTokenUsed, "onboarding token was already used").WriteError(w)

	case errors.Is(err, service.ErrInvalidState):
		onboardsdk.NewAPIError(http.StatusConflict,
			onboardsdk.ErrorCodeInvalidState, "invitation is no longer pending").WriteError(w)

	case errors.Is(err, service.ErrReminderLimitExceeded):
		onboardsdk.NewAPIError(http.StatusConflict,
			onboardsdk.ErrorCodeReminderLimit, "reminder limit reached for this invitation").WriteError(w)

	case errors.Is(err, service.ErrActiveTokenExists):
		onboardsdk.NewAPIError(http.StatusConflict,
			onboardsdk.ErrorCodeConflict, "a pending invitation already exists").WriteError(w)

	case errors.Is(err, service.ErrTimeout):
		onboardsdk.NewAPIError(http.StatusGatewayTimeout,
			onboardsdk.ErrorCodeTimeout, "operation timed out").WriteError(w)

	default:
		log.Error("unhandled service error", "err", err)
		onboardsdk.NewAPIError(http.StatusInternalServerError,
			onboardsdk.ErrorCodeServerError, "internal server error").WriteError(w)
	}
}
