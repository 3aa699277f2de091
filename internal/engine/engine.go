// Package engine drives the two scans over the knowledge base: CMS
// identification and admin path discovery.
package engine

import "time"

// DetectionMatch is emitted when a platform fingerprint matches content
// fetched from one of its candidate paths.
type DetectionMatch struct {
	Platform string
	Path     string
	URL      string
	FinalURL string
}

// AdminPathHit is emitted when a generic admin path answers 200.
type AdminPathHit struct {
	Path     string
	URL      string
	FinalURL string

	// CatchAll is set when the body resembles the page served for a
	// nonexistent path. Only computed when catch-all checking is enabled.
	CatchAll bool
}

// ScanResult holds the complete result of a scan against one domain.
type ScanResult struct {
	Domain       string
	Matches      []DetectionMatch
	AdminHits    []AdminPathHit
	StartTime    time.Time
	EndTime      time.Time
	ProbeCount   int
	RequestCount int64
	FailedCount  int64
	Errors       []error
}

// Platforms returns the distinct matched platform names in report order.
func (r *ScanResult) Platforms() []string {
	seen := make(map[string]struct{}, len(r.Matches))
	var names []string
	for _, m := range r.Matches {
		if _, ok := seen[m.Platform]; ok {
			continue
		}
		seen[m.Platform] = struct{}{}
		names = append(names, m.Platform)
	}
	return names
}

// Duration returns how long the scan ran.
func (r *ScanResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
