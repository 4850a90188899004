package onboardsdk

// CreateInvitationRequest is the admin request to invite someone.
type CreateInvitationRequest struct {
	Email           string `json:"email"`
	InviteeName     string `json:"invitee_name,omitempty"`
	InvitationType  string `json:"invitation_type"`
	PersonalMessage string `json:"personal_message,omitempty"`
}

// Invitation is the API view of an invitation.
type Invitation struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	InviteeName     string `json:"invitee_name,omitempty"`
	InvitationType  string `json:"invitation_type"`
	Status          string `json:"status"`
	PersonalMessage string `json:"personal_message,omitempty"`
	InvitedBy       string `json:"invited_by"`
	AcceptedBy      string `json:"accepted_by,omitempty"`
	ReminderCount   int    `json:"reminder_count"`
	AcceptedAt      string `json:"accepted_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// DeliveryResult reports how an email went out. Success with Demo set means
// the message was absorbed by the demo sink rather than delivered.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Method  string `json:"method"`
	Demo    bool   `json:"demo"`
	TaskID  string `json:"task_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateInvitationResponse is returned by POST /v1/invitations.
type CreateInvitationResponse struct {
	Invitation Invitation     `json:"invitation"`
	ExpiresAt  string         `json:"expires_at"`
	Delivery   DeliveryResult `json:"delivery"`
}

// ListInvitationsResponse is returned by GET /v1/invitations.
type ListInvitationsResponse struct {
	Invitations []Invitation `json:"invitations"`
}

// ResendRequest targets a pending invitation by email and role.
type ResendRequest struct {
	Email          string `json:"email"`
	InvitationType string `json:"invitation_type"`
}

// ResendResponse is returned by the resend endpoints.
type ResendResponse struct {
	Invitation    Invitation     `json:"invitation"`
	ReminderCount int            `json:"reminder_count"`
	CanSendMore   bool           `json:"can_send_more"`
	Delivery      DeliveryResult `json:"delivery"`
}

// ValidateResponse previews an invitation before the invitee decides.
type ValidateResponse struct {
	Valid           bool   `json:"valid"`
	InvitationID    string `json:"invitation_id"`
	Email           string `json:"email"`
	InviteeName     string `json:"invitee_name,omitempty"`
	InvitationType  string `json:"invitation_type"`
	PersonalMessage string `json:"personal_message,omitempty"`
	InviterName     string `json:"inviter_name,omitempty"`
	ExpiresAt       string `json:"expires_at"`
}

// RespondRequest carries an invitee's accept or decline.
type RespondRequest struct {
	Token string `json:"token"`
	// UserID links the decision to a platform account when the invitee is
	// already signed in. Optional: declines in particular often arrive
	// anonymously.
	UserID string `json:"user_id,omitempty"`
}

// RespondResponse is returned by accept and decline.
type RespondResponse struct {
	Invitation Invitation `json:"invitation"`
}

// TaskStatusResponse is the polling view of a queued delivery.
type TaskStatusResponse struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Email      string `json:"email"`
	Error      string `json:"error,omitempty"`
	EnqueuedAt string `json:"enqueued_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// FleetHealthResponse reports the delivery worker fleet.
type FleetHealthResponse struct {
	Status        string `json:"status"`
	ActiveWorkers int    `json:"active_workers"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

// HealthChecks itemizes dependency status for the readiness probe.
type HealthChecks struct {
	Database string `json:"database"`
	Notifier string `json:"notifier"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ErrorResponse is the common error envelope.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
