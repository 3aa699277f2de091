// Package fingerprint holds the platform knowledge base: which paths to probe
// for each CMS or e-commerce platform and which body patterns identify it.
package fingerprint

import (
	"fmt"
	"regexp"
	"strings"
)

// regexPrefix marks a fingerprint that is a regular expression rather than
// a literal substring.
const regexPrefix = "re:"

// Pattern is a single compiled content fingerprint.
type Pattern struct {
	raw     string
	literal string
	re      *regexp.Regexp
}

// NewPattern compiles a fingerprint. Literal patterns are lower-cased;
// "re:" patterns are compiled case-insensitively.
func NewPattern(raw string) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, fmt.Errorf("empty fingerprint")
	}
	if expr, ok := strings.CutPrefix(raw, regexPrefix); ok {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("fingerprint %q: %w", raw, err)
		}
		return Pattern{raw: raw, re: re}, nil
	}
	return Pattern{raw: raw, literal: strings.ToLower(raw)}, nil
}

// String returns the pattern as written in the knowledge base.
func (p Pattern) String() string { return p.raw }

// matchLower reports whether the pattern occurs in an already lower-cased body.
func (p Pattern) matchLower(lower string) bool {
	if p.re != nil {
		return p.re.MatchString(lower)
	}
	return strings.Contains(lower, p.literal)
}

// Platform identifies one CMS or e-commerce platform. It is immutable once
// loaded.
type Platform struct {
	name     string
	paths    []string
	patterns []Pattern
}

// NewPlatform builds a Platform, compiling every fingerprint.
func NewPlatform(name string, paths, fingerprints []string) (*Platform, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("platform name is required")
	}
	if len(fingerprints) == 0 {
		return nil, fmt.Errorf("platform %q: at least one fingerprint is required", name)
	}

	p := &Platform{
		name:     name,
		paths:    make([]string, 0, len(paths)),
		patterns: make([]Pattern, 0, len(fingerprints)),
	}
	for _, path := range paths {
		p.paths = append(p.paths, CleanPath(path))
	}
	for _, fp := range fingerprints {
		pat, err := NewPattern(fp)
		if err != nil {
			return nil, fmt.Errorf("platform %q: %w", name, err)
		}
		p.patterns = append(p.patterns, pat)
	}
	return p, nil
}

// Name returns the platform's unique name.
func (p *Platform) Name() string { return p.name }

// Paths returns a copy of the candidate paths. An empty result means only
// the domain root is probed.
func (p *Platform) Paths() []string {
	return append([]string(nil), p.paths...)
}

// RootOnly reports whether the platform has no candidate paths.
func (p *Platform) RootOnly() bool { return len(p.paths) == 0 }

// Match reports whether body contains any of the platform's fingerprints.
// An empty body never matches.
func (p *Platform) Match(body string) bool {
	if body == "" {
		return false
	}
	return p.MatchLower(strings.ToLower(body))
}

// MatchLower is Match for a body the caller has already lower-cased, so one
// fetch can be checked against many platforms with a single conversion.
func (p *Platform) MatchLower(lower string) bool {
	if lower == "" {
		return false
	}
	for _, pat := range p.patterns {
		if pat.matchLower(lower) {
			return true
		}
	}
	return false
}

// CleanPath normalizes a relative path: surrounding whitespace and leading
// slashes are removed. The empty string stands for the domain root.
func CleanPath(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}
