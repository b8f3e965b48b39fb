package extract

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	maxURLLength   = 200
	urlSpaceWindow = 50
)

// NormalizeURL cleans a URL-like value: wrapping quotes and a leading stray
// colon are removed, trailing punctuation is trimmed, and https:// is added to
// bare "www." or domain-like values. Returns false for values that do not look
// like a URL.
func NormalizeURL(raw string) (string, bool) {
	u := strings.Trim(strings.TrimSpace(raw), "\"'")
	u = strings.TrimSpace(strings.TrimLeft(u, ":"))
	u = strings.TrimRight(u, ".,;:")
	u = strings.TrimRight(strings.Trim(u, "\"'"), ".,;:")
	if u == "" {
		return "", false
	}

	lower := strings.ToLower(u)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
	case strings.HasPrefix(lower, "www."):
		u = "https://" + u
	case strings.Contains(u, ".") && !strings.ContainsAny(u, " \t\n"):
		u = "https://" + u
	default:
		return "", false
	}

	if strings.ContainsAny(u, " \t\n") {
		return "", false
	}
	parsed, err := url.Parse(u)
	if err != nil || !hasDomainHost(parsed.Hostname()) {
		return "", false
	}

	return u, true
}

// FindURL returns the first usable URL in the record. Candidate keys are tried
// in order, then all values are scanned in sorted key order for a URL-like token.
func FindURL(row RawRecord) (string, bool) {
	for _, k := range URLKeys {
		v := strings.TrimSpace(row[k])
		if v == "" {
			continue
		}
		if u, ok := NormalizeURL(v); ok {
			return u, true
		}
	}

	for _, k := range sortedKeys(row) {
		v := strings.TrimSpace(row[k])
		if !looksLikeURL(v) {
			continue
		}
		if u, ok := NormalizeURL(v); ok {
			return u, true
		}
	}

	return "", false
}

// looksLikeURL filters out free text that merely mentions a website
func looksLikeURL(v string) bool {
	if v == "" || len(v) >= maxURLLength {
		return false
	}
	if !strings.Contains(v, "http://") && !strings.Contains(v, "https://") && !strings.Contains(v, "www.") {
		return false
	}
	head := v
	if len(head) > urlSpaceWindow {
		head = head[:urlSpaceWindow]
	}
	return !strings.Contains(head, " ")
}

// hasDomainHost requires a dotted host whose last label contains a letter
func hasDomainHost(host string) bool {
	i := strings.LastIndex(host, ".")
	if i <= 0 || i == len(host)-1 {
		return false
	}
	return strings.IndexFunc(host[i+1:], unicode.IsLetter) >= 0
}
