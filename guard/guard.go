package guard

import (
	"net/http"
	"net/url"

	"github.com/sessync/sessync"
)

// Mode is the per-route guard annotation.
type Mode uint8

const (
	// ModeProtected requires an authenticated session. Zero value: an
	// unannotated route under a global guard is protected.
	ModeProtected Mode = iota
	// ModePublic disables the guard for the route.
	ModePublic
	// ModeGuest redirects authenticated users away from the route.
	ModeGuest
)

// DefaultMode resolves the mode of a route that carries no annotation of its
// own: protected when the global guard is enabled, public otherwise.
func DefaultMode(globalGuard bool) Mode {
	if globalGuard {
		return ModeProtected
	}
	return ModePublic
}

// StatusFunc reports the session status for a request. Adapting a reader this
// way keeps the middleware usable with both a client-side [sessync.Client]
// and a server-side session resolver.
type StatusFunc func(*http.Request) sessync.Status

// FromClient adapts a Client into a StatusFunc.
func FromClient(c *sessync.Client) StatusFunc {
	return func(*http.Request) sessync.Status {
		return c.Session().Status
	}
}

// Options configures the redirect targets of the middleware.
type Options struct {
	// SignInURL is the page unauthenticated users are sent to. Required.
	SignInURL string
	// GuestRedirect is where authenticated users land when they hit a guest
	// route. Defaults to "/".
	GuestRedirect string
}

// Middleware protects a route according to mode. Unauthenticated access to a
// protected route redirects to the sign-in page carrying a SessionRequired
// error and the request path as callback; authenticated access to a guest
// route redirects home. Everything else passes through.
func Middleware(status StatusFunc, mode Mode, opts Options) func(http.Handler) http.Handler {
	guestRedirect := opts.GuestRedirect
	if guestRedirect == "" {
		guestRedirect = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mode == ModePublic {
				next.ServeHTTP(w, r)
				return
			}

			s := status(r)

			if s == sessync.StatusUnauthenticated && mode != ModeGuest {
				target := opts.SignInURL
				if target != "" {
					u, err := url.Parse(target)
					if err == nil {
						q := u.Query()
						q.Set("error", "SessionRequired")
						q.Set("callbackUrl", r.URL.Path)
						u.RawQuery = q.Encode()
						target = u.String()
					}
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if s == sessync.StatusAuthenticated && mode == ModeGuest {
				http.Redirect(w, r, guestRedirect, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
