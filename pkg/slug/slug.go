// Package slug turns feed names into stable filenames.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	dashRuns = regexp.MustCompile(`-{2,}`)
)

// Make converts a feed name into a lowercase, dash-separated slug.
// The slug is stable across runs for the same name, which keeps output
// filenames stable. An empty or fully non-alphanumeric name yields "feed".
func Make(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return "feed"
	}

	return s
}
