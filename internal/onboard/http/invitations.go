package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/service"
	"github.com/lettingshq/onboard/pkg/httpx"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
	"github.com/lettingshq/onboard/pkg/slogx"
)

type InvitationsHandler struct {
	InvitationService *service.InvitationService
	ReminderService   *service.ReminderService
}

// HandleCreate serves POST /v1/invitations.
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req onboardsdk.CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, "invalid JSON body").WriteError(w)
		return
	}
	if req.Email == "" {
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, "email is required").WriteError(w)
		return
	}

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		onboardsdk.NewAPIError(http.StatusUnauthorized,
			onboardsdk.ErrorCodeUnauthorized, "authentication required").WriteError(w)
		return
	}

	created, err := h.InvitationService.Create(ctx, service.CreateParams{
		Email:           req.Email,
		InviteeName:     req.InviteeName,
		Type:            domain.InvitationType(req.InvitationType),
		PersonalMessage: req.PersonalMessage,
		InvitedBy:       userID,
		InviterName:     httpx.UserNameFromContext(ctx),
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, onboardsdk.CreateInvitationResponse{
		Invitation: toAPIInvitation(created.Invitation),
		ExpiresAt:  created.Token.ExpiresAt.Format(time.RFC3339),
		Delivery:   toAPIDelivery(created.Delivery),
	})
}

// HandleList serves GET /v1/invitations.
func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		onboardsdk.NewAPIError(http.StatusUnauthorized,
			onboardsdk.ErrorCodeUnauthorized, "authentication required").WriteError(w)
		return
	}

	invs, err := h.InvitationService.List(ctx, userID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	out := onboardsdk.ListInvitationsResponse{
		Invitations: make([]onboardsdk.Invitation, 0, len(invs)),
	}
	for _, inv := range invs {
		out.Invitations = append(out.Invitations, toAPIInvitation(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet serves GET /v1/invitations/{id}.
func (h *InvitationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	inv, err := h.InvitationService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAPIInvitation(inv))
}

// HandleResend serves POST /v1/invitations/{id}/resend.
func (h *InvitationsHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	receipt, err := h.ReminderService.Resend(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResendResponse(receipt))
}

// HandleResendByEmail serves POST /v1/invitations/resend.
func (h *InvitationsHandler) HandleResendByEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req onboardsdk.ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, "invalid JSON body").WriteError(w)
		return
	}
	if req.Email == "" {
		onboardsdk.NewAPIError(http.StatusBadRequest,
			onboardsdk.ErrorCodeInvalidRequest, "email is required").WriteError(w)
		return
	}

	receipt, err := h.ReminderService.ResendByEmail(ctx, req.Email, domain.InvitationType(req.InvitationType))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResendResponse(receipt))
}

func toResendResponse(receipt service.Receipt) onboardsdk.ResendResponse {
	return onboardsdk.ResendResponse{
		Invitation:    toAPIInvitation(receipt.Invitation),
		ReminderCount: receipt.ReminderCount,
		CanSendMore:   receipt.CanSendMore,
		Delivery:      toAPIDelivery(receipt.Delivery),
	}
}
