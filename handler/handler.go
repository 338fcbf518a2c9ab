package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// Actions the catch-all handler dispatches. Anything else is a 404.
var supportedActions = map[string]struct{}{
	"providers":      {},
	"session":        {},
	"csrf":           {},
	"signin":         {},
	"signout":        {},
	"callback":       {},
	"verify-request": {},
	"error":          {},
	"_log":           {},
}

// Request is the backend-facing view of an incoming auth request.
type Request struct {
	Host       string
	Method     string
	Action     string
	ProviderID string
	Error      string
	Query      url.Values
	Headers    http.Header
	Cookies    []*http.Cookie
	Body       url.Values
}

// Header is a single response header the backend wants appended.
type Header struct {
	Key   string
	Value string
}

// Response is what a backend returns for one auth request.
type Response struct {
	Status   int
	Headers  []Header
	Cookies  []*http.Cookie
	Redirect string
	Body     any
}

// Backend is the external authentication library collaborator. It owns every
// provider protocol; this package only carries its inputs and outputs.
type Backend interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// New returns the catch-all handler for the auth base path. The path suffix
// after basePath is split into action and provider id; unsupported actions
// 404 before the backend is consulted.
//
// Redirect responses follow the json-flag rule: a POST whose form body
// carries json=true receives {"url": ...} with status 200 instead of a 302,
// which is how non-redirecting sign-in/sign-out flows read their outcome.
func New(backend Backend, basePath string) http.Handler {
	basePath = "/" + strings.Trim(basePath, "/")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action, providerID, ok := splitActionPath(r.URL.Path, basePath)
		if !ok {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()
		reqErr := query.Get("error")
		if reqErr == "" {
			reqErr = providerID
		}
		query.Del("error")

		req := &Request{
			Host:       requestHost(r),
			Method:     r.Method,
			Action:     action,
			ProviderID: providerID,
			Error:      reqErr,
			Query:      query,
			Headers:    r.Header,
			Cookies:    r.Cookies(),
		}

		wantJSON := false
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			req.Body = r.PostForm
			wantJSON = r.PostForm.Get("json") == "true"
		}

		resp, err := backend.Handle(r.Context(), req)
		if err != nil {
			log.Print("sessync: auth backend call failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		for _, h := range resp.Headers {
			w.Header().Add(h.Key, h.Value)
		}
		for _, cookie := range resp.Cookies {
			http.SetCookie(w, cookie)
		}

		if resp.Redirect != "" {
			if wantJSON {
				writeJSON(w, http.StatusOK, map[string]string{"url": resp.Redirect})
				return
			}
			http.Redirect(w, r, resp.Redirect, http.StatusFound)
			return
		}

		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		if resp.Body == nil {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, resp.Body)
	})
}

// GetServerSession resolves the session for an arbitrary server route by
// asking the backend directly, with the caller's cookies. An empty session
// object is normalized to nil: absence, not an empty identity.
func GetServerSession(ctx context.Context, r *http.Request, backend Backend) (map[string]any, error) {
	resp, err := backend.Handle(ctx, &Request{
		Host:    requestHost(r),
		Method:  http.MethodGet,
		Action:  "session",
		Headers: r.Header,
		Cookies: r.Cookies(),
	})
	if err != nil {
		return nil, err
	}

	payload, _ := resp.Body.(map[string]any)
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}

func splitActionPath(path, basePath string) (action, providerID string, ok bool) {
	rest, found := strings.CutPrefix(path, basePath)
	if !found {
		return "", "", false
	}

	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", "", false
	}
	if _, supported := supportedActions[segments[0]]; !supported {
		return "", "", false
	}

	action = segments[0]
	if len(segments) > 1 {
		providerID = segments[1]
	}
	return action, providerID, true
}

func requestHost(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Print("sessync: response encode failed")
	}
}
