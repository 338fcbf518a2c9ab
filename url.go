package sessync

import (
	"net/url"
	"strings"
)

func joinPath(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, part := range parts {
		out += "/" + strings.Trim(part, "/")
	}
	return out
}

func withQuery(rawURL string, q url.Values) string {
	if len(q) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	merged := u.Query()
	for key, values := range q {
		for _, v := range values {
			merged.Add(key, v)
		}
	}
	u.RawQuery = merged.Encode()
	return u.String()
}

// queryParam pulls a single query parameter out of a URL, tolerating URLs
// that do not parse.
func queryParam(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
