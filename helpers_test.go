package sessync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sessync/sessync/broadcast"
	"github.com/sessync/sessync/handler"
	"github.com/sessync/sessync/internal/authstub"
)

type fakeClock struct {
	mu sync.Mutex
	t  int64
}

func (f *fakeClock) now() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) set(v int64) {
	f.mu.Lock()
	f.t = v
	f.mu.Unlock()
}

type recordingNavigator struct {
	mu      sync.Mutex
	current string
	visited []string
}

func (n *recordingNavigator) Navigate(url string) error {
	n.mu.Lock()
	n.visited = append(n.visited, url)
	n.mu.Unlock()
	return nil
}

func (n *recordingNavigator) CurrentURL() string {
	return n.current
}

func (n *recordingNavigator) last(t *testing.T) string {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.visited) == 0 {
		t.Fatal("expected a navigation")
	}
	return n.visited[len(n.visited)-1]
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.visited)
}

// fakeEndpoints is a hand-driven stand-in for the auth endpoints, used by the
// synchronizer tests that need exact control over session responses and call
// counts.
type fakeEndpoints struct {
	mu           sync.Mutex
	session      map[string]any // nil renders the empty object
	sessionCalls int

	// enteredSession, when set, receives one value per session request
	// before blockSession (if set) gates the response.
	enteredSession chan struct{}
	blockSession   chan struct{}
}

func (f *fakeEndpoints) setSession(payload map[string]any) {
	f.mu.Lock()
	f.session = payload
	f.mu.Unlock()
}

func (f *fakeEndpoints) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionCalls
}

func (f *fakeEndpoints) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.sessionCalls++
		payload := f.session
		entered := f.enteredSession
		block := f.blockSession
		f.mu.Unlock()

		if entered != nil {
			entered <- struct{}{}
		}
		if block != nil {
			<-block
		}

		w.Header().Set("Content-Type", "application/json")
		if payload == nil {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		writeTestJSON(w, payload)
	})
	mux.HandleFunc("/api/auth/csrf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"csrfToken":"test-csrf"}`))
	})
	return mux
}

func writeTestJSON(w http.ResponseWriter, payload map[string]any) {
	raw, _ := json.Marshal(payload)
	_, _ = w.Write(raw)
}

// newSyncClient wires a Client against fake endpoints with a steerable clock.
func newSyncClient(t *testing.T, fe *fakeEndpoints) (*Client, *fakeClock, func()) {
	t.Helper()

	server := httptest.NewServer(fe.handler())

	client, err := New().WithOrigin(server.URL).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	clock := &fakeClock{t: 1000}
	client.now = clock.now

	return client, clock, func() {
		client.Close()
		server.Close()
	}
}

// stubServer runs handler.New over an authstub backend: the full server-side
// glue the orchestrator tests exercise.
type stubServer struct {
	server *httptest.Server

	mu    sync.Mutex
	posts []string
}

func (s *stubServer) postCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func newStubServer(t *testing.T, providers []authstub.ProviderConfig, users map[string]string) (*stubServer, func()) {
	t.Helper()

	ss := &stubServer{}

	var backend *authstub.Stub
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ss.mu.Lock()
			ss.posts = append(ss.posts, r.URL.Path)
			ss.mu.Unlock()
		}
		handler.New(backend, "/api/auth").ServeHTTP(w, r)
	})

	ss.server = httptest.NewServer(mux)
	backend = authstub.New(authstub.Config{
		Secret:    []byte("test-secret"),
		BaseURL:   ss.server.URL + "/api/auth",
		Providers: providers,
		Users:     users,
	})

	return ss, ss.server.Close
}

// newFlowClient builds a Client against a stub server with a recording
// navigator and, when mr is non-nil, a broadcast channel on it.
func newFlowClient(t *testing.T, ss *stubServer, mr *miniredis.Miniredis, build func(*Builder) *Builder) (*Client, *recordingNavigator, func()) {
	t.Helper()

	nav := &recordingNavigator{current: ss.server.URL + "/current-page"}

	b := New().WithOrigin(ss.server.URL).WithNavigator(nav)
	var rdb *redis.Client
	if mr != nil {
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		b = b.WithRedis(rdb)
	}
	if build != nil {
		b = build(b)
	}

	client, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	return client, nav, func() {
		client.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}
}

// observeBroadcasts collects every session message posted to mr by others.
func observeBroadcasts(t *testing.T, mr *miniredis.Miniredis) (func() []broadcast.Message, func()) {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ch := broadcast.New(rdb, broadcast.DefaultKey)

	var mu sync.Mutex
	var msgs []broadcast.Message
	unsub := ch.Receive(func(msg broadcast.Message) {
		mu.Lock()
		msgs = append(msgs, msg)
		mu.Unlock()
	})

	snapshot := func() []broadcast.Message {
		mu.Lock()
		defer mu.Unlock()
		return append([]broadcast.Message(nil), msgs...)
	}
	return snapshot, func() {
		unsub()
		ch.Close()
		_ = rdb.Close()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	return mr, mr.Close
}
