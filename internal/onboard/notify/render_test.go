package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderFirstTime(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.PersonalMessage = "Welcome aboard!"
	email := Render(msg, "https://app.example.com/")

	require.Equal(t, "alice@example.com", email.To)
	require.Contains(t, email.Subject, "invited")
	require.NotContains(t, email.Subject, "Reminder")

	require.Contains(t, email.Text, "Hello Alice,")
	require.Contains(t, email.Text, "Welcome aboard!")
	require.Contains(t, email.Text, "https://app.example.com/onboarding/accept?token=tok123")
	require.Contains(t, email.Text, "expires 7 days")

	require.Contains(t, email.HTML, "Welcome aboard!")
	require.Contains(t, email.HTML, "onboarding/accept?token=tok123")
}

func TestRenderReminderCarriesAttemptAndCap(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.EmailType = EmailTypeReminder
	msg.AttemptCount = 2
	email := Render(msg, "https://app.example.com")

	require.Contains(t, email.Subject, "Reminder")
	require.Contains(t, email.Subject, "reminder 2 of 3")
	require.Contains(t, email.Text, "reminder 2 of 3")
	require.Contains(t, email.Text, "After 3 reminders no further emails will be sent")
	require.Contains(t, email.Text, "expires 7 days")
}

func TestRenderEscapesMarkupInHTMLBody(t *testing.T) {
	t.Parallel()

	msg := testMessage()
	msg.InviteeName = "Alice <script>alert(1)</script>"
	msg.InviterName = "Bob & Co"
	msg.PersonalMessage = `<img src=x onerror=alert(1)>`
	email := Render(msg, "https://app.example.com")

	require.NotContains(t, email.HTML, "<script>")
	require.NotContains(t, email.HTML, "<img")
	require.Contains(t, email.HTML, "Alice &lt;script&gt;")
	require.Contains(t, email.HTML, "Bob &amp; Co")

	// The plain-text variant passes names through untouched.
	require.Contains(t, email.Text, "Hello Alice <script>alert(1)</script>,")
}

func TestAcceptURLEscapesToken(t *testing.T) {
	t.Parallel()

	got := AcceptURL("https://app.example.com", "a+b/c")
	require.Equal(t, "https://app.example.com/onboarding/accept?token=a%2Bb%2Fc", got)
}
