//go:build integration
// +build integration

package test

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sessync/sessync"
	"github.com/sessync/sessync/handler"
	"github.com/sessync/sessync/internal/authstub"
)

type memoryNavigator struct {
	mu      sync.Mutex
	current string
	visited []string
}

func (n *memoryNavigator) Navigate(url string) error {
	n.mu.Lock()
	n.visited = append(n.visited, url)
	n.mu.Unlock()
	return nil
}

func (n *memoryNavigator) CurrentURL() string {
	return n.current
}

// authServer is a full auth deployment: the catch-all handler over a stub
// backend with one credentials provider.
func newAuthServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	var backend *authstub.Stub
	mux := http.NewServeMux()
	mux.Handle("/api/auth/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.New(backend, "/api/auth").ServeHTTP(w, r)
	}))

	server := httptest.NewServer(mux)
	backend = authstub.New(authstub.Config{
		Secret:  []byte("integration-secret"),
		BaseURL: server.URL + "/api/auth",
		Providers: []authstub.ProviderConfig{
			{ID: "credentials", Name: "Credentials", Type: "credentials"},
		},
		Users: map[string]string{"alice": "correct-horse"},
	})

	return server, server.Close
}

// newTab builds a client modeling one browser tab. Tabs handed the same
// http.Client share a cookie store the way real tabs do.
func newTab(t *testing.T, serverURL string, mr *miniredis.Miniredis, httpClient *http.Client) (*sessync.Client, *memoryNavigator, func()) {
	t.Helper()

	nav := &memoryNavigator{current: serverURL + "/app"}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client, err := sessync.New().
		WithOrigin(serverURL).
		WithNavigator(nav).
		WithRedis(rdb).
		WithHTTPClient(httpClient).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	return client, nav, func() {
		client.Close()
		_ = rdb.Close()
	}
}

func sharedCookies(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar failed: %v", err)
	}
	return &http.Client{Jar: jar}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
