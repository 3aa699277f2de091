package detector

import "strings"

// DefaultCatchAllThreshold is the similarity at or above which a body is
// considered the catch-all page.
const DefaultCatchAllThreshold = 0.95

// CatchAll remembers the page a site serves for a path that cannot exist.
type CatchAll struct {
	diff      *DiffEngine
	baseline  string
	probePath string
	threshold float64
}

// NewCatchAll records baseline as the body served for probePath. A
// threshold outside (0, 1] falls back to DefaultCatchAllThreshold.
func NewCatchAll(baseline []byte, probePath string, threshold float64) *CatchAll {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultCatchAllThreshold
	}
	return &CatchAll{
		diff:      NewDiffEngine(),
		baseline:  stripPath(string(baseline), probePath),
		probePath: probePath,
		threshold: threshold,
	}
}

// Matches reports whether body, fetched for path, looks like the catch-all
// page. Error pages often echo the requested path, so each path is removed
// from its own body before comparing. A nil CatchAll matches nothing.
func (c *CatchAll) Matches(body []byte, path string) bool {
	if c == nil {
		return false
	}
	return c.diff.Ratio(c.baseline, stripPath(string(body), path)) >= c.threshold
}

func stripPath(body, path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return body
	}
	return strings.ReplaceAll(body, path, "")
}
