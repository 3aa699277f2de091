package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/0x6d61/owlscan/internal/engine"
)

// TextReporter writes the line-oriented console report.
type TextReporter struct {
	// NoColor disables ANSI colouring of the status markers.
	NoColor bool

	// Verbose controls detail level: 0=results only, 1=+scan statistics.
	Verbose int
}

// Format returns "text".
func (r *TextReporter) Format() string {
	return "text"
}

// Generate writes formatted scan results to w.
func (r *TextReporter) Generate(ctx context.Context, result *engine.ScanResult, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info := r.marker(color.FgCyan, "[~]")
	found := r.marker(color.FgGreen, "[+]")
	none := r.marker(color.FgYellow, "[-]")
	warn := r.marker(color.FgRed, "[!]")

	b := &strings.Builder{}

	fmt.Fprintf(b, "%s Scanning CMS on %s...\n\n", info, result.Domain)
	if len(result.Matches) == 0 {
		fmt.Fprintf(b, "%s No CMS detected.\n\n", none)
	}
	for _, m := range result.Matches {
		fmt.Fprintf(b, "%s Detected CMS: %s at %s\n", found, m.Platform, m.URL)
	}

	fmt.Fprintf(b, "\n%s Checking common admin paths on %s...\n\n", info, result.Domain)
	if len(result.AdminHits) == 0 {
		fmt.Fprintf(b, "%s No common admin/login paths found.\n", none)
	}
	for _, h := range result.AdminHits {
		if h.CatchAll {
			fmt.Fprintf(b, "%s Found admin/login path: %s (possible catch-all page)\n", found, h.URL)
			continue
		}
		fmt.Fprintf(b, "%s Found admin/login path: %s\n", found, h.URL)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(b, "%s %s\n", warn, e.Error())
	}

	if r.Verbose > 0 {
		fmt.Fprintf(b, "\n[*] %d probe(s), %d HTTP request(s) (%d failed) in %.1fs\n",
			result.ProbeCount, result.RequestCount, result.FailedCount, result.Duration().Seconds())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TextReporter) marker(attr color.Attribute, s string) string {
	c := color.New(attr, color.Bold)
	if r.NoColor {
		c.DisableColor()
	}
	return c.Sprint(s)
}
