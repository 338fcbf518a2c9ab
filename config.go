package sessync

import (
	"errors"
	"net/url"
	"strings"
)

// Config defines the tunable options for a Client.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable; Build clones the value it is given.
type Config struct {
	// Origin is the scheme://host[:port] the session endpoints live on.
	// Required.
	Origin string

	// BasePath is the path prefix shared by all auth endpoints.
	// Defaults to "/api/auth".
	BasePath string

	// Providers lists the provider ids enabled for this application. Used
	// only for configuration introspection; the authoritative list always
	// comes from the providers endpoint.
	Providers []string

	// RefetchInterval is the poll period in seconds. 0 disables polling.
	RefetchInterval int

	// RefetchOnWindowFocus gates the visibility trigger. Defaults to true.
	RefetchOnWindowFocus bool

	// GlobalGuard marks whether unannotated routes are protected by the
	// guard middleware. guard.DefaultMode maps it to the effective mode of
	// routes without an annotation of their own.
	GlobalGuard bool

	// DefaultProvider resolves the "default" provider sentinel during
	// sign-in. Empty means the sentinel is unresolvable.
	DefaultProvider string

	// BroadcastKey is the shared storage key the cross-instance channel
	// writes. Defaults to "nextauth.message".
	BroadcastKey string
}

func defaultConfig() Config {
	return Config{
		BasePath:             "/api/auth",
		RefetchOnWindowFocus: true,
		BroadcastKey:         "nextauth.message",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Providers = append([]string(nil), cfg.Providers...)
	return out
}

// Validate checks the configuration for values Build cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Origin) == "" {
		return ErrOriginRequired
	}
	u, err := url.Parse(c.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("origin must be an absolute URL")
	}
	if c.RefetchInterval < 0 {
		return errors.New("refetch interval must not be negative")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return errors.New("base path must start with /")
	}
	if strings.TrimSpace(c.BroadcastKey) == "" {
		return errors.New("broadcast key must not be empty")
	}
	return nil
}

// baseURL joins origin and base path, the root all endpoint paths hang off.
func (c Config) baseURL() string {
	return strings.TrimRight(c.Origin, "/") + "/" + strings.Trim(c.BasePath, "/")
}
