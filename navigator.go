package sessync

import "fmt"

// Navigator is the capability sign-in and sign-out flows use for terminal
// redirects. Navigate follows a URL in whatever way the embedding application
// can (an HTTP 302, opening a browser, swapping a view); CurrentURL reports
// the location used as the default callback target.
//
// The zero configuration installs a navigator that drops navigations and
// reports the configured origin, which suits headless and test scenarios.
type Navigator interface {
	Navigate(url string) error
	CurrentURL() string
}

// navigate follows a terminal redirect, tagging failures with ErrNavigation
// so callers can tell a transport failure from a navigation failure.
func (c *Client) navigate(target string) error {
	if err := c.navigator.Navigate(target); err != nil {
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	return nil
}

type noopNavigator struct {
	origin string
}

func (n noopNavigator) Navigate(string) error { return nil }

func (n noopNavigator) CurrentURL() string { return n.origin }
