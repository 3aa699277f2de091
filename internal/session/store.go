// Package session records completed scans so earlier results can be
// reviewed and pruned later.
package session

import (
	"context"
	"time"

	"github.com/0x6d61/owlscan/internal/engine"
)

// Record is one stored scan.
type Record struct {
	ID        string                  `json:"id"`
	Domain    string                  `json:"domain"`
	Matches   []engine.DetectionMatch `json:"matches"`
	AdminHits []engine.AdminPathHit   `json:"admin_hits"`
	Probes    int                     `json:"probes"`
	Requests  int64                   `json:"requests"`
	Failed    int64                   `json:"failed"`
	StartedAt time.Time               `json:"started_at"`
	EndedAt   time.Time               `json:"ended_at"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewRecord captures the reportable parts of a scan result.
func NewRecord(result *engine.ScanResult) *Record {
	return &Record{
		Domain:    result.Domain,
		Matches:   result.Matches,
		AdminHits: result.AdminHits,
		Probes:    result.ProbeCount,
		Requests:  result.RequestCount,
		Failed:    result.FailedCount,
		StartedAt: result.StartTime,
		EndedAt:   result.EndTime,
	}
}

// Result rebuilds a scan result for the reporters. Errors are not stored.
func (r *Record) Result() *engine.ScanResult {
	return &engine.ScanResult{
		Domain:       r.Domain,
		Matches:      r.Matches,
		AdminHits:    r.AdminHits,
		StartTime:    r.StartedAt,
		EndTime:      r.EndedAt,
		ProbeCount:   r.Probes,
		RequestCount: r.Requests,
		FailedCount:  r.Failed,
	}
}

// Platforms returns the distinct platform names in match order.
func (r *Record) Platforms() []string {
	res := engine.ScanResult{Matches: r.Matches}
	return res.Platforms()
}

// Summary is a lightweight history entry.
type Summary struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Platforms []string  `json:"platforms"`
	AdminHits int       `json:"admin_hits"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves scan records.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, domain string) (*Record, error)
	LoadByID(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, domain string) ([]*Summary, error)
	Delete(ctx context.Context, id string) (bool, error)
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
	Close() error
}
