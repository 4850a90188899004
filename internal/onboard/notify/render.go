package notify

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/lettingshq/onboard/internal/onboard/domain"
)

const platformName = "Lettings HQ"

// Email is a fully rendered message ready for any transport.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// AcceptURL builds the onboarding link the invitee follows, embedding the raw
// token as a query parameter.
func AcceptURL(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/onboarding/accept?token=" + url.QueryEscape(token)
}

// Render produces the subject and both bodies for a message. Reminders get a
// distinct subject and surface the attempt number plus the hard cap; both
// variants disclose the fixed 7-day link expiry.
func Render(msg Message, baseURL string) Email {
	accept := AcceptURL(baseURL, msg.InvitationToken)
	role := roleLine(msg.InvitationType)

	greeting := "Hello,"
	if msg.InviteeName != "" {
		greeting = "Hello " + msg.InviteeName + ","
	}

	inviter := "The " + platformName + " team"
	if msg.InviterName != "" {
		inviter = msg.InviterName
	}

	var subject string
	var lead string
	var capNote string
	if msg.EmailType == EmailTypeReminder {
		subject = fmt.Sprintf("Reminder: your %s invitation is waiting (reminder %d of %d)",
			platformName, msg.AttemptCount, domain.MaxReminders)
		lead = fmt.Sprintf("This is a reminder that %s invited you to join %s %s. You haven't responded yet.",
			inviter, platformName, role)
		capNote = fmt.Sprintf("This is reminder %d of %d. After %d reminders no further emails will be sent.",
			msg.AttemptCount, domain.MaxReminders, domain.MaxReminders)
	} else {
		subject = fmt.Sprintf("You've been invited to join %s", platformName)
		lead = fmt.Sprintf("%s invited you to join %s %s.", inviter, platformName, role)
	}

	expiry := "This invitation link expires 7 days after it was issued."

	var text strings.Builder
	text.WriteString(greeting + "\n\n")
	text.WriteString(lead + "\n\n")
	if msg.PersonalMessage != "" {
		text.WriteString("Message from " + inviter + ":\n")
		text.WriteString("  " + msg.PersonalMessage + "\n\n")
	}
	text.WriteString("Accept the invitation: " + accept + "\n\n")
	if capNote != "" {
		text.WriteString(capNote + "\n")
	}
	text.WriteString(expiry + "\n")

	// Names and the personal message are caller input; they never become
	// markup in the HTML variant.
	var body strings.Builder
	body.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background-color: #f5f5f5;">`)
	body.WriteString(`<h2 style="color: #333; text-align: center;">` + html.EscapeString(subject) + `</h2>`)
	body.WriteString(`<p>` + html.EscapeString(greeting) + `</p>`)
	body.WriteString(`<p>` + html.EscapeString(lead) + `</p>`)
	if msg.PersonalMessage != "" {
		body.WriteString(`<blockquote style="border-left: 3px solid #28a745; margin: 0; padding: 4px 12px; color: #555;">` + html.EscapeString(msg.PersonalMessage) + `</blockquote>`)
	}
	body.WriteString(`<p style="text-align: center;"><a href="` + accept + `" style="display: inline-block; padding: 10px 20px; background-color: #28a745; color: #fff; text-decoration: none; border-radius: 5px;">Accept invitation</a></p>`)
	if capNote != "" {
		body.WriteString(`<p style="color: #777;">` + capNote + `</p>`)
	}
	body.WriteString(`<p style="color: #777;">` + expiry + `</p>`)
	body.WriteString(`<p>Regards,<br>` + html.EscapeString(inviter) + `</p>`)
	body.WriteString(`</div>`)

	return Email{
		To:      msg.Email,
		Subject: subject,
		HTML:    body.String(),
		Text:    text.String(),
	}
}

func roleLine(t domain.InvitationType) string {
	switch t {
	case domain.InvitationTypeAdmin:
		return "as an administrator"
	case domain.InvitationTypeOwner:
		return "as a property owner"
	default:
		return "as a member"
	}
}
