package sessync

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestStatusDerivation(t *testing.T) {
	cases := []struct {
		name    string
		data    SessionData
		loading bool
		want    Status
	}{
		{"loading wins", Authenticated(map[string]any{"user": "a"}), true, StatusLoading},
		{"authenticated", Authenticated(map[string]any{"user": "a"}), false, StatusAuthenticated},
		{"unauthenticated", Unauthenticated(), false, StatusUnauthenticated},
		{"not fetched reads unauthenticated", NotFetched(), false, StatusUnauthenticated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveStatus(tc.data, tc.loading); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAuthenticatedNormalizesEmptyPayload(t *testing.T) {
	if got := Authenticated(nil); got.State != StateUnauthenticated {
		t.Fatalf("nil payload should collapse to unauthenticated, got %v", got.State)
	}
	if got := Authenticated(map[string]any{}); got.State != StateUnauthenticated {
		t.Fatalf("empty payload should collapse to unauthenticated, got %v", got.State)
	}
}

func TestSessionSnapshotIsACopy(t *testing.T) {
	fe := &fakeEndpoints{}
	client, _, done := newSyncClient(t, fe)
	defer done()

	client.mu.Lock()
	client.data = Authenticated(map[string]any{"user": "alice"})
	client.loading = false
	client.mu.Unlock()

	snap := client.Session()
	snap.Data.Payload["user"] = "mallory"

	if got := client.Session().Data.Payload["user"]; got != "alice" {
		t.Fatalf("snapshot mutation reached the cache: %v", got)
	}
}

func TestRequireSessionDefaultHandlerNavigates(t *testing.T) {
	ss, closeServer := newStubServer(t, nil, nil)
	defer closeServer()

	client, nav, done := newFlowClient(t, ss, nil, nil)
	defer done()

	client.mu.Lock()
	client.data = Unauthenticated()
	client.loading = false
	client.mu.Unlock()

	snap := client.RequireSession(context.Background(), nil)

	if snap.Status != StatusLoading {
		t.Fatalf("expected loading after required-mode miss, got %v", snap.Status)
	}
	target := nav.last(t)
	if !strings.Contains(target, "error=SessionRequired") {
		t.Fatalf("expected SessionRequired error in %q", target)
	}
	if !strings.Contains(target, "callbackUrl=") {
		t.Fatalf("expected callbackUrl in %q", target)
	}
}

func TestRequireSessionCustomHandler(t *testing.T) {
	ss, closeServer := newStubServer(t, nil, nil)
	defer closeServer()

	client, nav, done := newFlowClient(t, ss, nil, nil)
	defer done()

	client.mu.Lock()
	client.data = Unauthenticated()
	client.loading = false
	client.mu.Unlock()

	called := false
	client.RequireSession(context.Background(), &RequireSessionOptions{
		OnUnauthenticated: func() { called = true },
	})

	if !called {
		t.Fatal("custom handler not invoked")
	}
	if got := nav.count(); got != 0 {
		t.Fatalf("default navigation fired alongside custom handler: %d", got)
	}
}

func TestRequireSessionAuthenticatedPassesThrough(t *testing.T) {
	ss, closeServer := newStubServer(t, nil, nil)
	defer closeServer()

	client, nav, done := newFlowClient(t, ss, nil, nil)
	defer done()

	client.mu.Lock()
	client.data = Authenticated(map[string]any{"user": "alice"})
	client.loading = false
	client.mu.Unlock()

	snap := client.RequireSession(context.Background(), nil)

	if snap.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %v", snap.Status)
	}
	if got := nav.count(); got != 0 {
		t.Fatalf("required mode navigated on an authenticated session: %d", got)
	}
}

func TestStartTwiceFails(t *testing.T) {
	ss, closeServer := newStubServer(t, nil, nil)
	defer closeServer()

	client, _, done := newFlowClient(t, ss, nil, nil)
	defer done()

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if err := client.Start(context.Background()); err != ErrClientStarted {
		t.Fatalf("expected ErrClientStarted, got %v", err)
	}
}

func TestCloseResetsCacheAndIsIdempotent(t *testing.T) {
	ss, closeServer := newStubServer(t, nil, nil)
	defer closeServer()

	client, _, done := newFlowClient(t, ss, nil, func(b *Builder) *Builder {
		return b.WithInitialSession(map[string]any{"user": map[string]any{"name": "alice"}})
	})
	defer done()

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	client.Close()
	client.Close()

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.data.State != StateNotFetched || client.lastSync != 0 || client.loading {
		t.Fatalf("cache not reset: %+v lastSync=%d loading=%v", client.data, client.lastSync, client.loading)
	}
}

func TestStartAfterCloseFails(t *testing.T) {
	ss, closeServer := newStubServer(t, nil, nil)
	defer closeServer()

	client, _, done := newFlowClient(t, ss, nil, nil)
	defer done()

	client.Close()
	if err := client.Start(context.Background()); err != ErrClientClosed {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func TestConcurrentStartCloseLeavesNoPoller(t *testing.T) {
	fe := &fakeEndpoints{}
	fe.setSession(map[string]any{"user": "alice"})
	server := httptest.NewServer(fe.handler())
	defer server.Close()

	for i := 0; i < 25; i++ {
		client, err := New().WithOrigin(server.URL).WithRefetchInterval(1).Build()
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = client.Start(context.Background())
		}()
		go func() {
			defer wg.Done()
			client.Close()
		}()
		wg.Wait()

		// Whichever side won, a launched poller must be stopped by the time
		// Close has returned.
		client.mu.Lock()
		stopPoll, pollDone := client.stopPoll, client.pollDone
		client.mu.Unlock()
		if stopPoll != nil {
			select {
			case <-pollDone:
			default:
				t.Fatal("poll goroutine still running after Close")
			}
		}
	}
}

func TestOnWindowFocusGatedByConfig(t *testing.T) {
	fe := &fakeEndpoints{}
	fe.setSession(map[string]any{"user": "alice"})
	client, clock, done := newSyncClient(t, fe)
	defer done()

	client.mu.Lock()
	client.data = Authenticated(map[string]any{"user": "alice"})
	client.lastSync = 0 // stale
	client.mu.Unlock()

	client.config.RefetchOnWindowFocus = false
	client.OnWindowFocus(context.Background())
	if got := fe.calls(); got != 0 {
		t.Fatalf("disabled focus refetch still fetched %d times", got)
	}

	client.config.RefetchOnWindowFocus = true
	clock.set(clock.now() + 1)
	client.OnWindowFocus(context.Background())
	if got := fe.calls(); got != 1 {
		t.Fatalf("expected 1 fetch on focus, got %d", got)
	}
}

func TestPollSkipsWithoutCachedSession(t *testing.T) {
	fe := &fakeEndpoints{} // always renders {}
	server := httptest.NewServer(fe.handler())
	defer server.Close()

	client, err := New().WithOrigin(server.URL).WithRefetchInterval(1).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer client.Close()

	clock := &fakeClock{t: 1000}
	client.now = clock.now

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	baseline := fe.calls() // the initial never-fetched sync

	time.Sleep(2500 * time.Millisecond)

	if got := fe.calls(); got != baseline {
		t.Fatalf("poll fetched without a cached session: %d -> %d", baseline, got)
	}
}
