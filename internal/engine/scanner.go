package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/0x6d61/owlscan/internal/detector"
	"github.com/0x6d61/owlscan/internal/fingerprint"
	"github.com/0x6d61/owlscan/internal/probe"
	"github.com/0x6d61/owlscan/internal/transport"
)

// ScanConfig holds configuration for a scan.
type ScanConfig struct {
	Threads int // Number of concurrent probes (1 = strictly sequential)
	Verbose int // Verbosity level 0-3

	// Independent fingerprints every platform against every reachable
	// candidate URL instead of skipping URLs an earlier platform consumed.
	Independent bool

	// CatchAll probes a random path first and flags admin hits that look
	// like the page served for it.
	CatchAll          bool
	CatchAllThreshold float64
}

// DefaultScanConfig returns sensible defaults.
func DefaultScanConfig() *ScanConfig {
	return &ScanConfig{
		Threads:           10,
		CatchAllThreshold: detector.DefaultCatchAllThreshold,
	}
}

// Fetcher probes a path on a domain. *probe.Prober is the production
// implementation.
type Fetcher interface {
	Fetch(ctx context.Context, domain, path string) probe.Result
}

// Scanner orchestrates the CMS and admin path scans.
type Scanner struct {
	client  transport.Client
	kb      *fingerprint.KnowledgeBase
	config  *ScanConfig
	logger  *slog.Logger
	fetcher Fetcher

	// Progress callback
	onProgress func(msg string)
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithLogger sets the scanner's logger.
func WithLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = l
	}
}

// WithFetcher replaces the probe executor.
func WithFetcher(f Fetcher) ScannerOption {
	return func(s *Scanner) {
		s.fetcher = f
	}
}

// NewScanner creates a scanner over client and kb. A nil kb means the
// built-in knowledge base.
func NewScanner(client transport.Client, kb *fingerprint.KnowledgeBase, config *ScanConfig, opts ...ScannerOption) *Scanner {
	if config == nil {
		config = DefaultScanConfig()
	}
	if kb == nil {
		kb = fingerprint.Default()
	}

	logLevel := slog.LevelError
	switch {
	case config.Verbose >= 3:
		logLevel = slog.LevelDebug
	case config.Verbose >= 2:
		logLevel = slog.LevelInfo
	case config.Verbose >= 1:
		logLevel = slog.LevelWarn
	}

	s := &Scanner{
		client: client,
		kb:     kb,
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel})),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		s.fetcher = probe.New(client, probe.WithLogger(s.logger))
	}

	return s
}

// KnowledgeBase returns the knowledge base the scanner evaluates.
func (s *Scanner) KnowledgeBase() *fingerprint.KnowledgeBase {
	return s.kb
}

// SetProgressCallback sets a function called with status messages.
func (s *Scanner) SetProgressCallback(fn func(string)) {
	s.onProgress = fn
}

func (s *Scanner) progress(format string, args ...any) {
	if s.onProgress != nil {
		s.onProgress(fmt.Sprintf(format, args...))
	}
}

// Scan runs the CMS identification scan and then the admin path scan.
// A cancelled context yields the partial result with the cancellation
// recorded in Errors.
func (s *Scanner) Scan(ctx context.Context, domain string) (*ScanResult, error) {
	result := &ScanResult{
		Domain:    domain,
		StartTime: time.Now(),
	}

	var before transport.TransportStats
	if s.client != nil {
		before = *s.client.Stats()
	}
	defer func() {
		result.EndTime = time.Now()
		if s.client != nil {
			after := s.client.Stats()
			result.RequestCount = after.TotalRequests - before.TotalRequests
			result.FailedCount = after.FailedRequests - before.FailedRequests
		}
	}()

	if strings.TrimSpace(domain) == "" {
		return result, fmt.Errorf("domain is required")
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scan cancelled before start: %w", err)
	}

	var n int
	result.Matches, n = s.detectCMS(ctx, domain)
	result.ProbeCount += n
	s.progress("CMS scan complete: %d match(es) from %d probe(s)", len(result.Matches), n)

	result.AdminHits, n = s.discoverAdminPaths(ctx, domain)
	result.ProbeCount += n
	s.progress("admin path scan complete: %d hit(s) from %d probe(s)", len(result.AdminHits), n)

	if err := ctx.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("scan interrupted: %w", err))
	}

	return result, nil
}

// DetectCMS identifies which platforms power domain.
func (s *Scanner) DetectCMS(ctx context.Context, domain string) []DetectionMatch {
	matches, _ := s.detectCMS(ctx, domain)
	return matches
}

// DiscoverAdminPaths returns the generic admin paths that answer 200 on
// domain, in knowledge base order.
func (s *Scanner) DiscoverAdminPaths(ctx context.Context, domain string) []AdminPathHit {
	hits, _ := s.discoverAdminPaths(ctx, domain)
	return hits
}

// planCMS lists each path the CMS scan needs exactly once, in first-use
// order. Root-only platforms contribute the root path "".
func (s *Scanner) planCMS() []string {
	var plan []string
	planned := make(map[string]struct{})
	add := func(path string) {
		if _, ok := planned[path]; ok {
			return
		}
		planned[path] = struct{}{}
		plan = append(plan, path)
	}

	for _, p := range s.kb.Platforms() {
		if p.RootOnly() {
			add("")
			continue
		}
		for _, path := range p.Paths() {
			add(path)
		}
	}
	return plan
}

func (s *Scanner) detectCMS(ctx context.Context, domain string) ([]DetectionMatch, int) {
	plan := s.planCMS()
	s.progress("probing %d candidate path(s) for %d platform(s)", len(plan), len(s.kb.Platforms()))

	results, probes := fetchAll(ctx, s.fetcher, domain, plan, s.config.Threads, s.logger)

	type fetched struct {
		res   probe.Result
		lower string
	}
	byPath := make(map[string]fetched, len(plan))
	for i, path := range plan {
		f := fetched{res: results[i]}
		if f.res.Found {
			f.lower = strings.ToLower(f.res.BodyString())
		}
		byPath[path] = f
	}

	var matches []DetectionMatch
	emit := func(p *fingerprint.Platform, path string, f fetched) {
		s.logger.Info("fingerprint matched", "platform", p.Name(), "url", f.res.URL)
		matches = append(matches, DetectionMatch{
			Platform: p.Name(),
			Path:     path,
			URL:      f.res.URL,
			FinalURL: f.res.FinalURL,
		})
	}

	// URLs already evaluated by an earlier platform, scoped to this scan.
	evaluated := make(map[string]struct{})

	for _, p := range s.kb.Platforms() {
		if p.RootOnly() {
			f := byPath[""]
			if f.res.Found && p.MatchLower(f.lower) {
				emit(p, "", f)
			}
			continue
		}

		for _, path := range p.Paths() {
			f := byPath[path]
			if !f.res.Found {
				continue
			}
			if !s.config.Independent {
				if _, done := evaluated[f.res.URL]; done {
					s.logger.Debug("skipping evaluated URL", "platform", p.Name(), "url", f.res.URL)
					continue
				}
				evaluated[f.res.URL] = struct{}{}
			}
			if p.MatchLower(f.lower) {
				emit(p, path, f)
			} else if f.res.Truncated {
				s.logger.Debug("no fingerprint in truncated body", "platform", p.Name(), "url", f.res.URL)
			}
		}
	}

	return matches, probes
}

func (s *Scanner) discoverAdminPaths(ctx context.Context, domain string) ([]AdminPathHit, int) {
	paths := s.kb.AdminPaths()
	probes := 0

	var catchAll *detector.CatchAll
	if s.config.CatchAll && ctx.Err() == nil {
		bogus := "owlscan-" + uuid.NewString()
		probes++
		if base := s.fetcher.Fetch(ctx, domain, bogus); base.Found {
			s.progress("site answers 200 for nonexistent path %s; flagging look-alike hits", base.URL)
			catchAll = detector.NewCatchAll(base.Body, bogus, s.config.CatchAllThreshold)
		}
	}

	s.progress("probing %d admin path(s)", len(paths))
	results, n := fetchAll(ctx, s.fetcher, domain, paths, s.config.Threads, s.logger)
	probes += n

	var hits []AdminPathHit
	for i, res := range results {
		if !res.Found {
			continue
		}
		hits = append(hits, AdminPathHit{
			Path:     paths[i],
			URL:      res.URL,
			FinalURL: res.FinalURL,
			CatchAll: catchAll.Matches(res.Body, paths[i]),
		})
	}
	return hits, probes
}
