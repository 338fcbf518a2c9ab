package sessync

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sessync/sessync/broadcast"
)

// Builder assembles a Client. A Builder starts from the default configuration
// and may only be used once; Build validates the accumulated state and wires
// the broadcast channel, HTTP transport and navigator together.
type Builder struct {
	config    Config
	redis     *redis.Client
	http      *http.Client
	navigator Navigator

	initial    map[string]any
	hasInitial bool
	server     bool

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Callers usually prefer the
// granular setters; WithConfig exists for configuration loaded elsewhere.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithOrigin sets the scheme://host the auth endpoints live on.
func (b *Builder) WithOrigin(origin string) *Builder {
	b.config.Origin = origin
	return b
}

// WithBasePath overrides the endpoint path prefix.
func (b *Builder) WithBasePath(basePath string) *Builder {
	b.config.BasePath = basePath
	return b
}

// WithProviders records the enabled provider ids.
func (b *Builder) WithProviders(ids ...string) *Builder {
	b.config.Providers = append([]string(nil), ids...)
	return b
}

// WithDefaultProvider sets the provider the "default" sentinel resolves to.
func (b *Builder) WithDefaultProvider(id string) *Builder {
	b.config.DefaultProvider = id
	return b
}

// WithRefetchInterval sets the poll period in seconds. 0 disables polling.
func (b *Builder) WithRefetchInterval(seconds int) *Builder {
	b.config.RefetchInterval = seconds
	return b
}

// WithRefetchOnWindowFocus gates the visibility trigger.
func (b *Builder) WithRefetchOnWindowFocus(enabled bool) *Builder {
	b.config.RefetchOnWindowFocus = enabled
	return b
}

// WithGlobalGuard marks unannotated routes as protected by default. The
// guard middleware resolves the effective mode through guard.DefaultMode.
func (b *Builder) WithGlobalGuard(enabled bool) *Builder {
	b.config.GlobalGuard = enabled
	return b
}

// WithRedis supplies the broadcast medium. Without it the Client still works,
// minus cross-instance notifications.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the HTTP client used for endpoint calls. The
// default client carries an in-memory cookie jar so session cookies set
// during sign-in are replayed on session fetches.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.http = client
	return b
}

// WithNavigator installs the redirect capability for sign-in/sign-out flows.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithInitialSession pre-seeds the cache from a server-rendered value. The
// Client starts already-synced and not loading; a nil payload seeds the
// confirmed-unauthenticated state. The seeded instance announces itself to
// sibling instances on Start instead of refetching.
func (b *Builder) WithInitialSession(payload map[string]any) *Builder {
	b.initial = payload
	b.hasInitial = true
	return b
}

// WithServerContext marks the Client as living inside a server-rendered
// request. Server-context Clients never post broadcast messages on
// initialization; fan-out to sibling instances happens from the client
// context once the rendered value reaches it.
func (b *Builder) WithServerContext(server bool) *Builder {
	b.server = server
	return b
}

// Build validates the configuration and returns a ready Client. The Client
// performs no I/O until Start or an explicit fetch/sign call.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if cfg.BasePath == "" {
		cfg.BasePath = "/api/auth"
	}
	if cfg.BroadcastKey == "" {
		cfg.BroadcastKey = broadcast.DefaultKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := b.http
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Jar: jar}
	}

	nav := b.navigator
	if nav == nil {
		nav = noopNavigator{origin: cfg.Origin}
	}

	c := &Client{
		config:    cfg,
		http:      httpClient,
		channel:   broadcast.New(b.redis, cfg.BroadcastKey),
		navigator: nav,
		server:    b.server,
		now:       func() int64 { return time.Now().Unix() },
	}

	if b.hasInitial {
		c.data = Authenticated(b.initial)
		c.lastSync = c.now()
		c.loading = false
	} else {
		c.data = NotFetched()
		c.lastSync = 0
		c.loading = true
	}

	b.built = true

	return c, nil
}
