package sessync

import "context"

type cookieHeaderContextKey struct{}

// WithCookieHeader attaches a raw Cookie header value to ctx. Session and
// CSRF fetches issued with this context forward it verbatim, which is how a
// server-rendered request lends its cookie credentials to a Client that has
// no cookie jar entry of its own yet.
func WithCookieHeader(ctx context.Context, cookie string) context.Context {
	return context.WithValue(ctx, cookieHeaderContextKey{}, cookie)
}

func cookieHeaderFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	cookie, _ := ctx.Value(cookieHeaderContextKey{}).(string)
	return cookie
}
