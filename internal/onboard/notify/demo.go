package notify

import (
	"context"
	"log/slog"
)

// MethodDemoSink is reported when an email was absorbed rather than sent.
const MethodDemoSink = "demo-sink"

// DemoSink is the terminal channel of the fallback chain. It logs the rendered
// email instead of sending it and always succeeds, which is what lets the
// dispatcher guarantee a successful Result for every dispatch.
type DemoSink struct {
	Logger  *slog.Logger
	BaseURL string
}

func (d *DemoSink) Name() string { return MethodDemoSink }

func (d *DemoSink) Send(ctx context.Context, msg Message) (Result, error) {
	email := Render(msg, d.BaseURL)

	if d.Logger != nil {
		d.Logger.InfoContext(ctx, "demo sink absorbed email",
			"to", email.To,
			"subject", email.Subject,
			"email_type", string(msg.EmailType),
			"accept_url", AcceptURL(d.BaseURL, msg.InvitationToken),
		)
	}

	return Result{
		Success: true,
		Method:  MethodDemoSink,
		Demo:    true,
	}, nil
}
