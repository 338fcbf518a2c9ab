package sessync

import (
	"context"
	"net/url"
)

// DefaultProviderSentinel is the provider id that resolves to
// Config.DefaultProvider at sign-in time.
const DefaultProviderSentinel = "default"

// SignInOptions tunes a sign-in flow.
type SignInOptions struct {
	// CallbackURL is where the user lands after the flow completes.
	// Defaults to the navigator's current URL.
	CallbackURL string

	// NoRedirect asks for a structured result instead of a navigation.
	// Honored only for provider kinds that support returning (credentials,
	// email); every other kind always redirects.
	NoRedirect bool

	// Fields carries provider-specific form fields (e.g. username/password
	// for a credentials provider). Merged into the submitted body.
	Fields url.Values
}

// SignOutOptions tunes a sign-out flow.
type SignOutOptions struct {
	// CallbackURL is where the user lands after signing out. Defaults to the
	// navigator's current URL.
	CallbackURL string

	// NoRedirect asks for the raw server response instead of a navigation.
	NoRedirect bool
}

// SignIn initiates a sign-in flow against the named provider, or sends the
// user to the generic sign-in page when no usable provider is selected.
//
// The flow resolves the configured providers, fetches a fresh CSRF token,
// submits the credentials with a JSON-response flag, and interprets the
// outcome: terminal paths navigate and return (nil, nil); the returning path
// forces a session resynchronization and yields a structured result whose
// Error field is extracted from the returned URL's query, with URL cleared
// whenever an error is present.
//
// In every non-terminal-redirect path a broadcast with trigger "signin" fans
// the state change out to sibling instances.
func (c *Client) SignIn(ctx context.Context, providerID string, opts *SignInOptions, authorizationParams url.Values) (*SignInResult, error) {
	callbackURL := c.navigator.CurrentURL()
	noRedirect := false
	var fields url.Values
	if opts != nil {
		if opts.CallbackURL != "" {
			callbackURL = opts.CallbackURL
		}
		noRedirect = opts.NoRedirect
		fields = opts.Fields
	}

	providers, err := c.GetProviders(ctx)
	if err != nil {
		return nil, err
	}

	// No providers configured at all: terminal error page.
	if len(providers) == 0 {
		return nil, c.navigate(joinPath(c.config.baseURL(), "error"))
	}

	id := providerID
	if id == DefaultProviderSentinel {
		id = c.config.DefaultProvider
	}
	provider, ok := providers[id]
	if id == "" || !ok {
		target := withQuery(joinPath(c.config.baseURL(), "signin"), url.Values{
			"callbackUrl": {callbackURL},
		})
		return nil, c.navigate(target)
	}

	supportsReturn := provider.Type.SupportsReturn()
	action := "signin"
	if provider.Type == TypeCredentials {
		action = "callback"
	}

	csrfToken, err := c.GetCsrfToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	for key, values := range fields {
		form[key] = append([]string(nil), values...)
	}
	form.Set("csrfToken", csrfToken)
	form.Set("callbackUrl", callbackURL)
	form.Set("json", "true")

	var data struct {
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, joinPath(action, provider.ID), authorizationParams, form, &data); err != nil {
		return nil, err
	}
	c.metrics.Inc(MetricSignIn)

	c.postBroadcast(ctx, "signin")

	if !noRedirect || !supportsReturn {
		href := data.URL
		if href == "" {
			href = callbackURL
		}
		return nil, c.navigate(href)
	}

	// The request went through; the session just changed server-side, so
	// force a refetch before reporting back.
	signInError := queryParam(data.URL, "error")
	c.Synchronize(ctx, TriggerStorage)

	result := &SignInResult{
		Error:  signInError,
		Status: 200,
		OK:     true,
		URL:    data.URL,
	}
	if signInError != "" {
		result.URL = ""
	}
	return result, nil
}

// SignOut removes the server-side session and clears the local cache state
// through a forced resynchronization. A broadcast with trigger "signout" is
// posted exactly once regardless of the redirect mode.
func (c *Client) SignOut(ctx context.Context, opts *SignOutOptions) (*SignOutResult, error) {
	callbackURL := c.navigator.CurrentURL()
	noRedirect := false
	if opts != nil {
		if opts.CallbackURL != "" {
			callbackURL = opts.CallbackURL
		}
		noRedirect = opts.NoRedirect
	}

	csrfToken, err := c.GetCsrfToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("csrfToken", csrfToken)
	form.Set("callbackUrl", callbackURL)
	form.Set("json", "true")

	var data SignOutResult
	if err := c.postForm(ctx, "signout", nil, form, &data); err != nil {
		return nil, err
	}
	c.metrics.Inc(MetricSignOut)

	c.postBroadcast(ctx, "signout")

	if !noRedirect {
		href := data.URL
		if href == "" {
			href = callbackURL
		}
		return &data, c.navigate(href)
	}

	c.Synchronize(ctx, TriggerStorage)

	return &data, nil
}
