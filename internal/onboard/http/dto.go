package http

import (
	"time"

	"github.com/lettingshq/onboard/internal/onboard/domain"
	"github.com/lettingshq/onboard/internal/onboard/notify"
	"github.com/lettingshq/onboard/pkg/onboardsdk"
)

func toAPIInvitation(inv domain.Invitation) onboardsdk.Invitation {
	out := onboardsdk.Invitation{
		ID:              inv.ID,
		Email:           inv.Email,
		InviteeName:     inv.InviteeName,
		InvitationType:  string(inv.Type),
		Status:          string(inv.Status),
		PersonalMessage: inv.PersonalMessage,
		InvitedBy:       inv.InvitedBy,
		AcceptedBy:      inv.AcceptedBy,
		ReminderCount:   inv.ReminderCount,
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       inv.UpdatedAt.Format(time.RFC3339),
	}
	if inv.AcceptedAt != nil {
		out.AcceptedAt = inv.AcceptedAt.Format(time.RFC3339)
	}
	return out
}

func toAPIDelivery(res notify.Result) onboardsdk.DeliveryResult {
	return onboardsdk.DeliveryResult{
		Success: res.Success,
		Method:  res.Method,
		Demo:    res.Demo,
		TaskID:  res.TaskID,
		Error:   res.Error,
	}
}
