package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyUserName ctxKey = "user_name"
	CtxKeyScopes   ctxKey = "scopes"
)

// UserIDFromContext returns the authenticated user's id, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// UserNameFromContext returns the authenticated user's display name, if any.
func UserNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserName).(string); ok {
		return v
	}
	return ""
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
