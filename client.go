package sessync

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sessync/sessync/broadcast"
)

// Client owns one application instance's session cache and the machinery that
// keeps it synchronized: the trigger-driven synchronizer, the endpoint
// fetcher, the sign-in/sign-out orchestrator, and the subscription to the
// cross-instance broadcast channel.
//
// All methods are safe for concurrent use. The cache is guarded by a single
// mutex; network round-trips never happen while it is held.
type Client struct {
	config    Config
	http      *http.Client
	channel   *broadcast.Channel
	navigator Navigator
	metrics   Metrics
	server    bool

	// now returns unix seconds. Swapped out by tests to steer staleness.
	now func() int64

	mu       sync.Mutex
	data     SessionData
	loading  bool
	lastSync int64
	started  bool
	closed   bool

	unsubscribe func()
	stopPoll    chan struct{}
	pollDone    chan struct{}
}

// Config returns a copy of the Client's effective configuration.
func (c *Client) Config() Config {
	return cloneConfig(c.config)
}

// Metrics exposes the Client's counters.
func (c *Client) Metrics() *Metrics {
	return &c.metrics
}

// MetricsSnapshot copies the current counter values. Exporters under
// metrics/export consume this.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Start performs the initial synchronization, subscribes to the broadcast
// channel (deliveries re-enter the synchronizer as storage triggers) and, when
// polling is configured, starts the refetch ticker. Start may be called once.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrClientStarted
	}
	c.started = true
	c.mu.Unlock()

	// A server-context instance has no sibling tabs to notify, so its
	// startup sync is passive: a pre-seeded cache is left alone and an empty
	// one is fetched through the never-fetched rule.
	trigger := TriggerInitialize
	if c.server {
		trigger = TriggerNone
	}
	c.Synchronize(ctx, trigger)

	unsubscribe := c.channel.Receive(func(broadcast.Message) {
		c.metrics.Inc(MetricBroadcastReceived)
		c.Synchronize(context.Background(), TriggerStorage)
	})

	// The teardown handles are published under the mutex with a re-check of
	// closed, so a Close racing this Start either sees them or Start sees
	// the closure; a poller is never launched without Close able to stop it.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return ErrClientClosed
	}
	c.unsubscribe = unsubscribe
	if c.config.RefetchInterval > 0 {
		c.stopPoll = make(chan struct{})
		c.pollDone = make(chan struct{})
		go c.poll(time.Duration(c.config.RefetchInterval) * time.Second)
	}
	c.mu.Unlock()

	return nil
}

// poll refetches on a fixed period. A tick is a no-op unless a session is
// currently cached; there is nothing meaningful to refresh otherwise.
func (c *Client) poll(interval time.Duration) {
	defer close(c.pollDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopPoll:
			return
		case <-ticker.C:
			if c.Session().Data.State == StateAuthenticated {
				c.Synchronize(context.Background(), TriggerPoll)
			}
		}
	}
}

// OnWindowFocus feeds a visibility trigger into the synchronizer. The
// embedding application calls this when its window or tab regains focus; the
// call is a no-op when RefetchOnWindowFocus is disabled.
func (c *Client) OnWindowFocus(ctx context.Context) {
	if !c.config.RefetchOnWindowFocus {
		return
	}
	c.Synchronize(ctx, TriggerVisibility)
}

// Close deterministically releases the poll ticker and the broadcast
// subscription and resets the cache to its initial values. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stopPoll := c.stopPoll
	pollDone := c.pollDone
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	if stopPoll != nil {
		close(stopPoll)
		<-pollDone
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	c.channel.Close()

	c.mu.Lock()
	c.data = NotFetched()
	c.loading = false
	c.lastSync = 0
	c.mu.Unlock()
}

// Session returns a read-only snapshot of the cache: the session value and
// the status derived from it. The payload is copied; mutating the snapshot
// never reaches the cache.
func (c *Client) Session() SessionSnapshot {
	c.mu.Lock()
	data := c.data
	loading := c.loading
	c.mu.Unlock()

	if data.Payload != nil {
		payload := make(map[string]any, len(data.Payload))
		for k, v := range data.Payload {
			payload[k] = v
		}
		data.Payload = payload
	}

	return SessionSnapshot{Data: data, Status: deriveStatus(data, loading)}
}

// RequireSessionOptions configures RequireSession. A nil OnUnauthenticated
// falls back to navigating to the sign-in page with a SessionRequired error
// and the current URL as callback.
type RequireSessionOptions struct {
	OnUnauthenticated func()
}

// RequireSession is the required-mode accessor: when the derived status is
// unauthenticated at the moment of access it marks the cache loading and
// invokes the unauthenticated handler, then returns the refreshed snapshot.
func (c *Client) RequireSession(ctx context.Context, opts *RequireSessionOptions) SessionSnapshot {
	snap := c.Session()
	if snap.Status != StatusUnauthenticated {
		return snap
	}

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	handler := func() {
		target := withQuery(joinPath(c.config.baseURL(), "signin"), url.Values{
			"error":       {"SessionRequired"},
			"callbackUrl": {c.navigator.CurrentURL()},
		})
		_ = c.navigate(target)
	}
	if opts != nil && opts.OnUnauthenticated != nil {
		handler = opts.OnUnauthenticated
	}
	handler()

	return c.Session()
}

// postBroadcast announces a session-affecting event to sibling instances.
// Fire-and-forget by contract.
func (c *Client) postBroadcast(ctx context.Context, trigger string) {
	c.channel.Post(ctx, broadcast.Message{
		Event: broadcast.EventSession,
		Data:  broadcast.Payload{Trigger: trigger},
	})
	c.metrics.Inc(MetricBroadcastSent)
}
