package engine

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/0x6d61/owlscan/internal/probe"
)

func TestScanResultPlatforms(t *testing.T) {
	r := &ScanResult{Matches: []DetectionMatch{
		{Platform: "WordPress", URL: "https://x/wp-admin"},
		{Platform: "WordPress", URL: "https://x/wp-login.php"},
		{Platform: "Wix", URL: "https://x/"},
	}}
	if got, want := r.Platforms(), []string{"WordPress", "Wix"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Platforms() = %v, want %v", got, want)
	}
}

func TestScanResultDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &ScanResult{StartTime: start, EndTime: start.Add(1500 * time.Millisecond)}
	if r.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %v", r.Duration())
	}
}

type echoFetcher struct{}

func (echoFetcher) Fetch(_ context.Context, domain, path string) probe.Result {
	return probe.Result{Found: true, URL: domain + "/" + path}
}

func TestFetchAll_PreservesOrder(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f", "g"}
	s := NewScanner(nil, nil, nil)
	out, n := fetchAll(context.Background(), echoFetcher{}, "d", paths, 3, s.logger)
	if n != len(paths) {
		t.Errorf("processed = %d, want %d", n, len(paths))
	}
	for i, p := range paths {
		if out[i].URL != "d/"+p {
			t.Errorf("out[%d].URL = %q, want %q", i, out[i].URL, "d/"+p)
		}
	}
}

func TestFetchAll_Empty(t *testing.T) {
	s := NewScanner(nil, nil, nil)
	if out, n := fetchAll(context.Background(), echoFetcher{}, "d", nil, 4, s.logger); len(out) != 0 || n != 0 {
		t.Errorf("len(out) = %d, processed = %d, want 0", len(out), n)
	}
}

type funcFetcher func(ctx context.Context, domain, path string) probe.Result

func (f funcFetcher) Fetch(ctx context.Context, domain, path string) probe.Result {
	return f(ctx, domain, path)
}

func TestFetchAll_CountsOnlyProcessed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopAfterFirst := funcFetcher(func(_ context.Context, domain, path string) probe.Result {
		cancel()
		return probe.Result{Found: true, URL: domain + "/" + path}
	})

	s := NewScanner(nil, nil, nil)
	out, n := fetchAll(ctx, stopAfterFirst, "d", []string{"a", "b", "c", "d"}, 1, s.logger)
	if n != 1 {
		t.Errorf("processed = %d, want 1", n)
	}
	if !out[0].Found || out[1].Found || out[3].Found {
		t.Errorf("only the first slot should be filled: %+v", out)
	}
}

func TestFetchAll_PanicCountsAsAbsent(t *testing.T) {
	panicky := funcFetcher(func(_ context.Context, domain, path string) probe.Result {
		if path == "bad" {
			panic("boom")
		}
		return probe.Result{Found: true, URL: domain + "/" + path}
	})

	s := NewScanner(nil, nil, nil)
	out, n := fetchAll(context.Background(), panicky, "d", []string{"ok", "bad"}, 2, s.logger)
	if n != 2 {
		t.Errorf("processed = %d, want 2", n)
	}
	if !out[0].Found || out[1].Found {
		t.Errorf("out = %+v, want ok found and bad absent", out)
	}
}

func TestPlanCMS_UniqueInFirstUseOrder(t *testing.T) {
	s := NewScanner(nil, nil, nil)
	plan := s.planCMS()

	seen := make(map[string]bool)
	for _, p := range plan {
		if seen[p] {
			t.Errorf("path %q planned twice", p)
		}
		seen[p] = true
	}
	if plan[0] != "wp-admin" {
		t.Errorf("plan[0] = %q, want wp-admin", plan[0])
	}
	if !seen[""] {
		t.Error("root path missing from plan")
	}
}
