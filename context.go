package socialauth

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's network address to the context so audit
// events can record where a request came from. The engine never uses it for
// decisions.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
