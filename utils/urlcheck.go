package utils

import "net/url"

// IsAbsoluteHTTPURL reports whether s parses as an absolute http or https
// URL. Used to salvage webhook responses whose entire body is a bare video
// link.
func IsAbsoluteHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
