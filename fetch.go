package sessync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GetSessionParams tunes a single session fetch.
type GetSessionParams struct {
	// DisableBroadcast suppresses the post-fetch broadcast. The synchronizer
	// and orchestrator leave it off so the fetching instance announces state
	// changes to its siblings.
	DisableBroadcast bool
}

// GetSession fetches the current session from the session endpoint. Only
// cookie-bearing credentials travel with the request: the HTTP client's jar
// plus any context-attached Cookie header for server-context calls.
//
// A structurally empty response body is normalized to the confirmed
// unauthenticated state; an empty object is never a valid session. After a
// successful fetch the result is broadcast to sibling instances unless
// suppressed.
func (c *Client) GetSession(ctx context.Context, params *GetSessionParams) (SessionData, error) {
	var payload map[string]any
	if err := c.getJSON(ctx, "session", &payload); err != nil {
		c.metrics.Inc(MetricSessionFetchError)
		return NotFetched(), err
	}
	c.metrics.Inc(MetricSessionFetch)

	if params == nil || !params.DisableBroadcast {
		c.postBroadcast(ctx, "getSession")
	}

	return Authenticated(payload), nil
}

// GetCsrfToken fetches the anti-forgery token required on every
// state-changing request.
func (c *Client) GetCsrfToken(ctx context.Context) (string, error) {
	var body struct {
		CsrfToken string `json:"csrfToken"`
	}
	if err := c.getJSON(ctx, "csrf", &body); err != nil {
		return "", err
	}
	if body.CsrfToken == "" {
		return "", ErrCSRFUnavailable
	}
	return body.CsrfToken, nil
}

// GetProviders fetches the configured provider descriptors keyed by id.
func (c *Client) GetProviders(ctx context.Context) (map[string]Provider, error) {
	var providers map[string]Provider
	if err := c.getJSON(ctx, "providers", &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinPath(c.config.baseURL(), endpoint), nil)
	if err != nil {
		return err
	}
	if cookie := cookieHeaderFromContext(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s endpoint returned status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// postForm submits a state-changing request with an urlencoded body and
// decodes the JSON response into out.
func (c *Client) postForm(ctx context.Context, path string, query url.Values, form url.Values, out any) error {
	target := withQuery(joinPath(c.config.baseURL(), path), query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie := cookieHeaderFromContext(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s endpoint returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
