package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionTokenCookie is the cookie carrying the session JWT on plain
	// HTTP origins.
	SessionTokenCookie = "next-auth.session-token"
	// SecureSessionTokenCookie is the host-locked variant used on HTTPS
	// origins.
	SecureSessionTokenCookie = "__Secure-next-auth.session-token"
)

// ErrNoToken is returned by GetToken when neither the session cookie nor a
// bearer header carries a token.
var ErrNoToken = errors.New("no session token")

// TokenOptions configures GetToken.
type TokenOptions struct {
	// Secret is the HS256 verification key. Required.
	Secret []byte
	// CookieName overrides the cookie the token is read from. When empty the
	// name is chosen by scheme: the __Secure- variant on HTTPS requests.
	CookieName string
	// SecureCookie forces the secure cookie name regardless of scheme.
	SecureCookie bool
}

// GetToken decodes the session JWT from the request, trying the session
// cookie first and the Authorization bearer header second. Verification is
// HS256 against opts.Secret; any other signing method is rejected.
func GetToken(r *http.Request, opts TokenOptions) (jwt.MapClaims, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("token secret required")
	}

	raw := rawToken(r, opts)
	if raw == "" {
		return nil, ErrNoToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return opts.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	return claims, nil
}

func rawToken(r *http.Request, opts TokenOptions) string {
	name := opts.CookieName
	if name == "" {
		name = SessionTokenCookie
		if opts.SecureCookie || strings.HasPrefix(requestHost(r), "https://") {
			name = SecureSessionTokenCookie
		}
	}

	if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	const bearer = "Bearer "
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, bearer) {
		return auth[len(bearer):]
	}
	return ""
}
