package sessync

// SessionState is the closed enumeration of cache session states.
//
// The three states are deliberately distinct: StateNotFetched means no fetch
// has ever completed in this instance, StateUnauthenticated means the server
// confirmed the absence of a session, and StateAuthenticated means a non-empty
// session payload is cached. A structurally empty payload is never a valid
// authenticated state.
type SessionState uint8

const (
	// StateNotFetched is the initial state before any session fetch completed.
	StateNotFetched SessionState = iota
	// StateUnauthenticated means the server confirmed there is no session.
	StateUnauthenticated
	// StateAuthenticated means a non-empty session payload is cached.
	StateAuthenticated
)

// String returns the lowercase name of the state.
func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "notfetched"
	}
}

// SessionData is a session cache value: a state tag plus the opaque payload
// that is only meaningful in StateAuthenticated.
//
// The payload is opaque to sessync beyond presence or absence; its shape is
// owned by the authentication backend.
type SessionData struct {
	State   SessionState
	Payload map[string]any
}

// NotFetched returns the never-fetched session value.
func NotFetched() SessionData {
	return SessionData{State: StateNotFetched}
}

// Unauthenticated returns the confirmed-absent session value.
func Unauthenticated() SessionData {
	return SessionData{State: StateUnauthenticated}
}

// Authenticated wraps a non-empty payload as an authenticated session value.
// An empty payload collapses to Unauthenticated.
func Authenticated(payload map[string]any) SessionData {
	if len(payload) == 0 {
		return Unauthenticated()
	}
	return SessionData{State: StateAuthenticated, Payload: payload}
}

// Status is the derived tri-state view consumers branch on. It has no storage
// of its own; it is always computed from the cache entry.
type Status uint8

const (
	// StatusLoading reports that a session fetch is pending.
	StatusLoading Status = iota
	// StatusAuthenticated reports a cached, non-empty session.
	StatusAuthenticated
	// StatusUnauthenticated reports the absence of a session.
	StatusUnauthenticated
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

func deriveStatus(data SessionData, loading bool) Status {
	if loading {
		return StatusLoading
	}
	if data.State == StateAuthenticated {
		return StatusAuthenticated
	}
	return StatusUnauthenticated
}

// SessionSnapshot is the read-only view returned by [Client.Session]. Both
// fields are copies; mutating the snapshot never affects the cache.
type SessionSnapshot struct {
	Data   SessionData
	Status Status
}

// ProviderType is the closed variant of provider kinds the orchestrator
// distinguishes. Unknown kinds behave like OAuth: they never support
// returning control to the caller.
type ProviderType string

const (
	// TypeCredentials identifies username/password style providers.
	TypeCredentials ProviderType = "credentials"
	// TypeEmail identifies magic-link email providers.
	TypeEmail ProviderType = "email"
	// TypeOAuth identifies redirect-based OAuth/OIDC providers.
	TypeOAuth ProviderType = "oauth"
)

// SupportsReturn reports whether a sign-in against this provider kind may
// return a structured result to the caller instead of a hard redirect.
func (t ProviderType) SupportsReturn() bool {
	return t == TypeCredentials || t == TypeEmail
}

// Provider is the client-safe provider descriptor served by the providers
// endpoint.
type Provider struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        ProviderType `json:"type"`
	SigninURL   string       `json:"signinUrl"`
	CallbackURL string       `json:"callbackUrl"`
}

// SignInResult is the structured outcome of a sign-in flow whose caller opted
// out of redirecting. URL is empty whenever Error is set.
type SignInResult struct {
	Error  string
	Status int
	OK     bool
	URL    string
}

// SignOutResult carries the raw server response of a non-redirecting sign-out.
type SignOutResult struct {
	URL string `json:"url"`
}
