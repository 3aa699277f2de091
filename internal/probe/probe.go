// Package probe fetches a path on a target domain, trying secure transport
// first and falling back to plaintext.
package probe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/0x6d61/owlscan/internal/transport"
)

// DefaultSchemes is the fixed scheme priority order.
var DefaultSchemes = []string{"https://", "http://"}

// Result is the outcome of one probe. The zero value is the absence signal:
// every scheme failed or answered with something other than 200.
type Result struct {
	// Found reports whether some scheme answered 200.
	Found bool

	// URL is the probed URL (scheme + domain + "/" + path) that answered.
	URL string

	// FinalURL is where the response actually came from after redirects.
	FinalURL string

	// Body is the response body.
	Body []byte

	// Truncated reports whether Body was cut at the transport body limit.
	Truncated bool
}

// BodyString returns the response body as a string.
func (r Result) BodyString() string {
	return string(r.Body)
}

// Prober issues best-effort GET probes. Transport faults never escape Fetch.
type Prober struct {
	client  transport.Client
	schemes []string
	logger  *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithSchemes replaces the scheme priority order.
func WithSchemes(schemes ...string) Option {
	return func(p *Prober) {
		p.schemes = append([]string(nil), schemes...)
	}
}

// WithLogger sets the logger used for swallowed probe faults.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Prober over client.
func New(client transport.Client, opts ...Option) *Prober {
	p := &Prober{
		client:  client,
		schemes: DefaultSchemes,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch probes path on domain. Schemes are tried in order and the first 200
// wins; faults and other statuses move on to the next scheme.
func (p *Prober) Fetch(ctx context.Context, domain, path string) Result {
	domain = strings.TrimRight(domain, "/")

	for _, scheme := range p.schemes {
		if ctx.Err() != nil {
			break
		}

		url := BuildURL(scheme, domain, path)
		resp, err := p.client.Do(ctx, &transport.Request{
			Method: http.MethodGet,
			URL:    url,
		})
		if err != nil {
			p.logger.Debug("probe failed", "url", url, "error", err)
			continue
		}
		if !resp.OK() {
			p.logger.Debug("probe rejected", "url", url, "status", resp.StatusCode)
			continue
		}

		p.logger.Debug("probe answered", "url", url, "final_url", resp.URL, "duration", resp.Duration)
		if resp.Truncated {
			p.logger.Debug("body truncated; content past the limit is not fingerprinted",
				"url", url, "bytes", len(resp.Body))
		}

		return Result{
			Found:     true,
			URL:       url,
			FinalURL:  resp.URL,
			Body:      resp.Body,
			Truncated: resp.Truncated,
		}
	}

	return Result{}
}

// BuildURL joins scheme, domain and a relative path.
func BuildURL(scheme, domain, path string) string {
	return scheme + strings.TrimRight(domain, "/") + "/" + strings.TrimLeft(path, "/")
}

// NormalizeDomain turns user input into a bare host with optional path
// prefix: whitespace, a leading http:// or https://, and trailing slashes
// are removed.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(raw)
	lower := strings.ToLower(d)
	for _, scheme := range DefaultSchemes {
		if strings.HasPrefix(lower, scheme) {
			d = d[len(scheme):]
			break
		}
	}
	return strings.TrimRight(d, "/")
}
