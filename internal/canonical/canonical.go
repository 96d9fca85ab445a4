// Package canonical reduces problem URLs to a stable form used to detect
// problems that were already archived.
package canonical

import (
	"net/url"
	"strings"
)

// redundantSuffixes are trailing path segments that select a tab of the
// same problem page. Only LeetCode has one today.
var redundantSuffixes = map[string][]string{
	"leetcode.com": {"/description"},
}

// Canonicalize strips trailing slashes, known redundant path segments, the
// query string and the fragment. Scheme and host are lowercased. Input that
// does not parse as an absolute URL is returned unchanged.
func Canonicalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	path := strings.TrimRight(u.Path, "/")
	for host, suffixes := range redundantSuffixes {
		if !strings.Contains(u.Host, host) {
			continue
		}
		path = trimSuffixes(path, suffixes)
	}
	u.Path = path
	u.RawPath = ""

	return u.String()
}

// trimSuffixes removes suffixes until none applies, so a second pass over
// the result is a no-op.
func trimSuffixes(path string, suffixes []string) string {
	for {
		trimmed := path
		for _, suffix := range suffixes {
			if strings.HasSuffix(trimmed, suffix) {
				trimmed = strings.TrimRight(strings.TrimSuffix(trimmed, suffix), "/")
			}
		}
		if trimmed == path {
			return path
		}
		path = trimmed
	}
}
