package sessync

import "errors"

var (
	// ErrClientClosed is returned when an operation is attempted on a Client
	// after Close.
	ErrClientClosed = errors.New("client closed")
	// ErrClientStarted is returned when Start is called twice on the same Client.
	ErrClientStarted = errors.New("client already started")
	// ErrCSRFUnavailable is returned when the CSRF endpoint does not yield a token.
	ErrCSRFUnavailable = errors.New("csrf token unavailable")
	// ErrOriginRequired is returned by Build when no origin was configured.
	ErrOriginRequired = errors.New("origin required")
	// ErrNavigation is returned when the configured Navigator fails to follow
	// a redirect issued by a sign-in or sign-out flow.
	ErrNavigation = errors.New("navigation failed")
)
