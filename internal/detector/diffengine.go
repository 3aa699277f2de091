// Package detector compares response bodies. The scanner uses it to tell a
// real admin page apart from a catch-all page served for every path.
package detector

import (
	"regexp"
	"strings"
)

// DiffEngine computes body similarity with per-request noise removed.
type DiffEngine struct {
	DynamicPatterns []*regexp.Regexp
}

// NewDiffEngine creates a DiffEngine with default dynamic content patterns:
// CSRF tokens, session identifiers, timestamps, nonces and UUIDs.
func NewDiffEngine() *DiffEngine {
	return &DiffEngine{
		DynamicPatterns: []*regexp.Regexp{
			// CSRF tokens in hidden fields or meta tags
			regexp.MustCompile(`(?i)(csrf[_-]?token|_token|authenticity_token|form_key|nonce)([^"]*"[^"]*"|[^']*'[^']*'|=[^\s&]+)`),
			// Session identifiers (PHPSESSID, JSESSIONID, frontend=...)
			regexp.MustCompile(`(?i)(sess(ion)?[_-]?(id)?|phpsessid|jsessionid|sid)\s*[:=]\s*[^\s<"'&]+`),
			regexp.MustCompile(`(?i)\bsess[_-][a-zA-Z0-9]+\b`),
			// ISO 8601 timestamps
			regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[^\s<"']*`),
			// Unix timestamps, cache busters
			regexp.MustCompile(`\b\d{10,13}\b`),
			// Long hex strings (hashes, request IDs)
			regexp.MustCompile(`[0-9a-fA-F]{32,}`),
			regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`),
		},
	}
}

func (d *DiffEngine) stripDynamic(s string) string {
	for _, pat := range d.DynamicPatterns {
		s = pat.ReplaceAllString(s, "")
	}
	return s
}

// Ratio computes a line-based similarity ratio between two bodies, from 0.0
// (nothing shared) to 1.0 (identical after dynamic content is stripped).
func (d *DiffEngine) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	sa := d.stripDynamic(a)
	sb := d.stripDynamic(b)
	if sa == sb {
		return 1.0
	}

	linesA := strings.Split(sa, "\n")
	linesB := strings.Split(sb, "\n")

	matches := 0
	used := make([]bool, len(linesB))
	for _, la := range linesA {
		for j, lb := range linesB {
			if !used[j] && la == lb {
				matches += 2
				used[j] = true
				break
			}
		}
	}

	return float64(matches) / float64(len(linesA)+len(linesB))
}
