// Package guard exposes the route-protection HTTP middleware built on the
// sessync session status.
//
// # Modes
//
// A route carries one of three guard modes: [ModeProtected] (the zero value
// and the default for unannotated routes when the global guard is on),
// [ModePublic] (no guard), and [ModeGuest] (authenticated users are redirected
// away, e.g. a login page).
//
// # Architecture boundaries
//
// This package translates HTTP semantics into session status checks. It does
// NOT fetch or mutate sessions. Status comes from a caller-supplied reader,
// and the only actions it takes are redirects.
package guard
