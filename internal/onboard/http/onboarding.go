package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/service"
	"github.com/lettingshq/onboard/pkg/httpx"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
	"github.com/lettingshq/onboard/pkg/slogx"
)

// OnboardingHandler serves the public, token-credentialed endpoints the
// invitee hits from their email link.
type OnboardingHandler struct {
	TokenService      *service.TokenService
	InvitationService *service.InvitationService
}

// HandleValidate serves GET /v1/onboarding/validate?token=...
// It previews the invitation without consuming the token.
func (h *OnboardingHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	v, err := h.TokenService.Validate(ctx, r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, onboardsdk.ValidateResponse{
		Valid:           true,
		InvitationID:    v.Invitation.ID,
		Email:           v.Invitation.Email,
		InviteeName:     v.Invitation.InviteeName,
		InvitationType:  string(v.Invitation.Type),
		PersonalMessage: v.Invitation.PersonalMessage,
		InviterName:     v.Token.Metadata[domain.MetaInviterName],
		ExpiresAt:       v.Token.ExpiresAt.Format(time.RFC3339),
	})
}

// HandleAccept serves POST /v1/onboarding/accept.
func (h *OnboardingHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.InvitationService.Accept)
}

// HandleDecline serves POST /v1/onboarding/decline.
func (h *OnboardingHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.InvitationService.Decline)
}

func (h *OnboardingHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, rawToken, userID string) (domain.Invitation, error),
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req onboardsdk.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, "invalid JSON body").WriteError(w)
		return
	}
	if req.Token == "" {
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, "token is required").WriteError(w)
		return
	}

	inv, err := op(ctx, req.Token, req.UserID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, onboardsdk.RespondResponse{
		Invitation: toAPIInvitation(inv),
	})
}
