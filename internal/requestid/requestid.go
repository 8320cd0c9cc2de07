// Package requestid carries the per-request correlation id through contexts.
package requestid

import "context"

type contextKey string

const key contextKey = "request_id"

const Header = "X-Request-ID"

func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

func From(ctx context.Context) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
