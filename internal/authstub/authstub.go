// Package authstub is an in-memory authentication backend used by tests and
// the example binary. It stands in for the external authentication library:
// it mints CSRF tokens, issues HS256 session JWTs as cookies, and answers the
// provider/session endpoints with deterministic data. It is not hardened and
// must never back a real deployment.
package authstub

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sessync/sessync/handler"
)

// ProviderConfig declares one provider the stub advertises.
type ProviderConfig struct {
	ID   string
	Name string
	Type string
}

// Config wires a Stub.
type Config struct {
	// Secret signs session JWTs. Required.
	Secret []byte
	// BaseURL is the absolute auth endpoint root, used in provider
	// descriptors and error redirects.
	BaseURL string
	// Providers the stub advertises.
	Providers []ProviderConfig
	// Users maps usernames to passwords for the credentials provider.
	Users map[string]string
	// SessionTTL bounds issued sessions. Defaults to one hour.
	SessionTTL time.Duration
}

// Stub implements handler.Backend in memory.
type Stub struct {
	cfg Config

	mu   sync.Mutex
	csrf map[string]struct{}
}

// New returns a ready Stub.
func New(cfg Config) *Stub {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}

	return &Stub{
		cfg:  cfg,
		csrf: make(map[string]struct{}),
	}
}

// Handle dispatches one auth action.
func (s *Stub) Handle(_ context.Context, req *handler.Request) (*handler.Response, error) {
	switch req.Action {
	case "providers":
		return s.providers(), nil
	case "csrf":
		return s.mintCSRF(), nil
	case "session":
		return s.session(req), nil
	case "signin":
		if req.Method == http.MethodPost {
			return s.oauthSignIn(req), nil
		}
		return jsonResponse(map[string]any{"page": "signin", "error": req.Error}), nil
	case "callback":
		return s.credentialsCallback(req), nil
	case "signout":
		return s.signOut(req), nil
	case "error":
		return jsonResponse(map[string]any{"page": "error"}), nil
	default:
		return &handler.Response{Status: http.StatusOK}, nil
	}
}

func (s *Stub) providers() *handler.Response {
	body := make(map[string]any, len(s.cfg.Providers))
	for _, p := range s.cfg.Providers {
		body[p.ID] = map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"type":        p.Type,
			"signinUrl":   s.cfg.BaseURL + "/signin/" + p.ID,
			"callbackUrl": s.cfg.BaseURL + "/callback/" + p.ID,
		}
	}
	return jsonResponse(body)
}

func (s *Stub) mintCSRF() *handler.Response {
	token := uuid.NewString()

	s.mu.Lock()
	s.csrf[token] = struct{}{}
	s.mu.Unlock()

	return jsonResponse(map[string]any{"csrfToken": token})
}

func (s *Stub) checkCSRF(body map[string][]string) bool {
	values := body["csrfToken"]
	if len(values) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.csrf[values[0]]
	return ok
}

// session answers with the decoded session claims or an empty object when no
// valid token rides along. The empty object is deliberate: it is the wire
// shape clients must normalize to "no session".
func (s *Stub) session(req *handler.Request) *handler.Response {
	for _, cookie := range req.Cookies {
		if cookie.Name != handler.SessionTokenCookie || cookie.Value == "" {
			continue
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(cookie.Value, claims, func(*jwt.Token) (any, error) {
			return s.cfg.Secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			break
		}

		return jsonResponse(map[string]any(claims))
	}

	return jsonResponse(map[string]any{})
}

func (s *Stub) oauthSignIn(req *handler.Request) *handler.Response {
	if !s.checkCSRF(req.Body) {
		return s.signinError("CsrfToken")
	}

	// A real backend would bounce through the provider here. The stub signs
	// the user straight in under the provider id.
	cookie, err := s.issueSession(map[string]any{
		"user": map[string]any{"name": req.ProviderID},
	})
	if err != nil {
		return s.signinError("OAuthSignin")
	}

	return &handler.Response{Redirect: callbackURL(req), Cookies: []*http.Cookie{cookie}}
}

func (s *Stub) credentialsCallback(req *handler.Request) *handler.Response {
	if !s.checkCSRF(req.Body) {
		return s.signinError("CsrfToken")
	}

	username := firstValue(req.Body, "username")
	password := firstValue(req.Body, "password")
	if expected, ok := s.cfg.Users[username]; !ok || expected != password {
		return s.signinError("CredentialsSignin")
	}

	cookie, err := s.issueSession(map[string]any{
		"user": map[string]any{"name": username},
	})
	if err != nil {
		return s.signinError("CredentialsSignin")
	}

	return &handler.Response{Redirect: callbackURL(req), Cookies: []*http.Cookie{cookie}}
}

func (s *Stub) signOut(req *handler.Request) *handler.Response {
	if !s.checkCSRF(req.Body) {
		return s.signinError("CsrfToken")
	}

	expired := &http.Cookie{
		Name:   handler.SessionTokenCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	}
	return &handler.Response{Redirect: callbackURL(req), Cookies: []*http.Cookie{expired}}
}

func (s *Stub) signinError(code string) *handler.Response {
	return &handler.Response{Redirect: s.cfg.BaseURL + "/signin?error=" + code}
}

func (s *Stub) issueSession(claims map[string]any) (*http.Cookie, error) {
	claims["exp"] = time.Now().Add(s.cfg.SessionTTL).Unix()
	claims["iat"] = time.Now().Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     handler.SessionTokenCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
	}, nil
}

func callbackURL(req *handler.Request) string {
	if v := firstValue(req.Body, "callbackUrl"); v != "" {
		return v
	}
	return "/"
}

func firstValue(body map[string][]string, key string) string {
	values := body[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func jsonResponse(body map[string]any) *handler.Response {
	return &handler.Response{Status: http.StatusOK, Body: body}
}
