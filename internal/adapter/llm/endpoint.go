package llm

import (
	"net/url"
	"regexp"
	"strings"
)

// ResolveEndpoint returns the URL a chat request for cfg will be POSTed to.
// It is deterministic and performs no I/O. A custom provider with no base
// URL resolves to "", which Chat rejects before any network use.
func ResolveEndpoint(cfg Config) (string, error) {
	d, err := dialectFor(cfg.Provider)
	if err != nil {
		return "", err
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return d.defaultEndpoint, nil
	}

	base = normalizeBaseURL(base)
	if hasCompleteAPIPath(base) {
		return base, nil
	}
	return base + d.pathSuffix, nil
}

// normalizeBaseURL injects a scheme when the user typed a bare host and
// strips trailing slashes so suffix joining stays predictable.
func normalizeBaseURL(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

var versionedSegment = regexp.MustCompile(`/v\d+(/|$)`)

// hasCompleteAPIPath reports whether the URL already points at a concrete
// chat endpoint, in which case no provider suffix is appended. The markers
// cover the OpenAI-compatible family (/chat, /completions), Anthropic
// (/messages), and any versioned API path.
func hasCompleteAPIPath(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	path := parsed.Path
	for _, marker := range []string{"/chat", "/completions", "/messages"} {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return versionedSegment.MatchString(path)
}
