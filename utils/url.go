package utils

import (
	"fmt"
	"regexp"
	"strings"

	"wsfetch/internal"
)

// ShareURLMatcher extracts file identifiers from share links of one service domain.
//
// Accepted shapes (anywhere in the input, scheme and subdomain optional):
//
//	<domain>/#/file/<ident>[/<name>][/]
//	<domain>/#file/<ident>[/<name>][/]
//	<domain>/file/<ident>[/<name>][/]
type ShareURLMatcher struct {
	domain  string
	pattern *regexp.Regexp
}

// NewShareURLMatcher builds a matcher for the given share domain (e.g. "webshare.cz")
func NewShareURLMatcher(domain string) *ShareURLMatcher {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return &ShareURLMatcher{
		domain:  domain,
		pattern: regexp.MustCompile(regexp.QuoteMeta(domain) + `/#?/?file/([^/]+)`),
	}
}

// ExtractIdentity returns the file identifier embedded in rawURL.
// ok is false for anything that is not a share link; callers must treat that as
// a terminal input error rather than retrying.
func (m *ShareURLMatcher) ExtractIdentity(rawURL string) (ident string, ok bool) {
	matches := m.pattern.FindStringSubmatch(rawURL)
	if len(matches) < 2 || matches[1] == "" {
		return "", false
	}
	return matches[1], true
}

// ParseURL is ExtractIdentity with a typed InvalidURL error for the miss case
func (m *ShareURLMatcher) ParseURL(rawURL string) (string, error) {
	ident, ok := m.ExtractIdentity(rawURL)
	if !ok {
		return "", internal.NewInvalidURLError(rawURL).
			WithSuggestion(fmt.Sprintf("Please provide a %s share URL (e.g., https://%s/#/file/<ident>/<name>)", m.domain, m.domain))
	}
	return ident, nil
}
