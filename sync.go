package sessync

import (
	"context"
	"log"
)

// Trigger is the reason a resynchronization attempt is requested.
type Trigger uint8

const (
	// TriggerNone marks a passive attempt with no driving event.
	TriggerNone Trigger = iota
	// TriggerStorage marks a cross-instance broadcast delivery. Always forces
	// a refetch: the server is the ground truth that resolves any
	// cross-instance inconsistency.
	TriggerStorage
	// TriggerVisibility marks the window or tab regaining focus.
	TriggerVisibility
	// TriggerPoll marks a refetch-interval tick.
	TriggerPoll
	// TriggerInitialize marks instance startup.
	TriggerInitialize
)

// String returns the trigger's wire name.
func (t Trigger) String() string {
	switch t {
	case TriggerStorage:
		return "storage"
	case TriggerVisibility:
		return "visibilitychange"
	case TriggerPoll:
		return "poll"
	case TriggerInitialize:
		return "initialize"
	default:
		return "none"
	}
}

// Synchronize runs the session synchronizer for one trigger. The decision
// table, first match wins:
//
//  1. storage trigger, or never fetched: refetch unconditionally.
//  2. no trigger, or confirmed unauthenticated, or still fresh: skip.
//  3. initialize trigger in a client context: the value already came from the
//     server render, so announce it to sibling instances instead of
//     refetching.
//  4. otherwise the cache is stale and an active trigger occurred: refetch.
//
// lastSync is stamped before the fetch is issued so a concurrent trigger
// arriving mid-flight observes freshness and skips rather than double-firing.
// This is optimistic de-duplication, not mutual exclusion: it trades a small
// window of harmless apparent staleness for never blocking a trigger.
//
// Fetch failures are logged and swallowed; the previous cache value stands.
// The loading flag is cleared on every path.
func (c *Client) Synchronize(ctx context.Context, trigger Trigger) {
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	c.mu.Lock()
	switch {
	case trigger == TriggerStorage || c.data.State == StateNotFetched:
		c.lastSync = c.now()
		c.mu.Unlock()

	case trigger == TriggerNone || c.data.State == StateUnauthenticated || c.now() < c.lastSync:
		c.mu.Unlock()
		c.metrics.Inc(MetricSyncSkipped)
		return

	case trigger == TriggerInitialize && !c.server:
		c.mu.Unlock()
		c.postBroadcast(ctx, "getSession")
		return

	default:
		c.lastSync = c.now()
		c.mu.Unlock()
	}

	// A storage-driven fetch must not re-broadcast, or two instances would
	// bounce refetch notifications between each other indefinitely.
	data, err := c.GetSession(ctx, &GetSessionParams{DisableBroadcast: trigger == TriggerStorage})
	if err != nil {
		log.Print("sessync: session fetch failed during sync")
		return
	}

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
}
