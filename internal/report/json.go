package report

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/0x6d61/owlscan/internal/engine"
)

// JSONReporter outputs structured JSON.
type JSONReporter struct {
	// Compact outputs single-line JSON when true (no indentation).
	Compact bool
}

// Format returns "json".
func (r *JSONReporter) Format() string {
	return "json"
}

type jsonOutput struct {
	SchemaVersion string      `json:"schema_version"`
	Tool          string      `json:"tool"`
	Domain        string      `json:"domain"`
	Scan          jsonScan    `json:"scan"`
	CMS           []jsonMatch `json:"cms"`
	AdminPaths    []jsonHit   `json:"admin_paths"`
	Summary       jsonSummary `json:"summary"`
	Errors        []string    `json:"errors,omitempty"`
}

type jsonScan struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	Probes          int       `json:"probes"`
	TotalRequests   int64     `json:"total_requests"`
	FailedRequests  int64     `json:"failed_requests"`
}

type jsonMatch struct {
	Platform string `json:"platform"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	FinalURL string `json:"final_url,omitempty"`
}

type jsonHit struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	FinalURL string `json:"final_url,omitempty"`
	CatchAll bool   `json:"catch_all"`
}

type jsonSummary struct {
	Platforms  []string `json:"platforms"`
	CMSMatches int      `json:"cms_matches"`
	AdminHits  int      `json:"admin_hits"`
}

// Generate writes JSON scan results to w.
func (r *JSONReporter) Generate(ctx context.Context, result *engine.ScanResult, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	output := jsonOutput{
		SchemaVersion: "1.0",
		Tool:          "owlscan",
		Domain:        result.Domain,
		Scan: jsonScan{
			StartTime:       result.StartTime,
			EndTime:         result.EndTime,
			DurationSeconds: result.Duration().Seconds(),
			Probes:          result.ProbeCount,
			TotalRequests:   result.RequestCount,
			FailedRequests:  result.FailedCount,
		},
		CMS:        make([]jsonMatch, 0, len(result.Matches)),
		AdminPaths: make([]jsonHit, 0, len(result.AdminHits)),
		Summary: jsonSummary{
			Platforms:  result.Platforms(),
			CMSMatches: len(result.Matches),
			AdminHits:  len(result.AdminHits),
		},
	}
	if output.Summary.Platforms == nil {
		output.Summary.Platforms = []string{}
	}

	for _, m := range result.Matches {
		output.CMS = append(output.CMS, jsonMatch{
			Platform: m.Platform,
			Path:     m.Path,
			URL:      m.URL,
			FinalURL: m.FinalURL,
		})
	}
	for _, h := range result.AdminHits {
		output.AdminPaths = append(output.AdminPaths, jsonHit{
			Path:     h.Path,
			URL:      h.URL,
			FinalURL: h.FinalURL,
			CatchAll: h.CatchAll,
		})
	}

	if len(result.Errors) > 0 {
		output.Errors = make([]string, len(result.Errors))
		for i, e := range result.Errors {
			output.Errors[i] = e.Error()
		}
	}

	enc := json.NewEncoder(w)
	if !r.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(output)
}
