package session

import (
	"context"
	"testing"
	"time"

	"github.com/0x6d61/owlscan/internal/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore(:memory:) returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func wordpressRecord(id string) *Record {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Record{
		ID:     id,
		Domain: "example.com",
		Matches: []engine.DetectionMatch{
			{Platform: "WordPress", Path: "wp-login.php", URL: "https://example.com/wp-login.php"},
		},
		AdminHits: []engine.AdminPathHit{
			{Path: "admin", URL: "https://example.com/admin"},
		},
		Requests:  42,
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Second),
	}
}

func TestNewSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	if store.db == nil {
		t.Fatal("NewSQLiteStore(:memory:) db field is nil")
	}
}

func TestNewRecord(t *testing.T) {
	result := &engine.ScanResult{
		Domain: "example.com",
		Matches: []engine.DetectionMatch{
			{Platform: "Joomla", Path: "administrator"},
			{Platform: "Joomla", Path: "administrator/index.php"},
		},
		RequestCount: 7,
	}
	rec := NewRecord(result)
	if rec.Domain != "example.com" || rec.Requests != 7 {
		t.Errorf("NewRecord = %+v", rec)
	}
	if got := rec.Platforms(); len(got) != 1 || got[0] != "Joomla" {
		t.Errorf("Platforms() = %v, want [Joomla]", got)
	}
}

func TestRecord_Result(t *testing.T) {
	rec := wordpressRecord("r1")
	rec.Probes = 30
	rec.Failed = 5

	res := rec.Result()
	if res.Domain != "example.com" || len(res.Matches) != 1 || len(res.AdminHits) != 1 {
		t.Errorf("Result() = %+v", res)
	}
	if res.ProbeCount != 30 || res.RequestCount != 42 || res.FailedCount != 5 {
		t.Errorf("counts = %d/%d/%d, want 30/42/5", res.ProbeCount, res.RequestCount, res.FailedCount)
	}
	if res.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", res.Duration())
	}

	// NewRecord and Result round-trip the reportable fields.
	back := NewRecord(res)
	if back.Probes != 30 || back.Failed != 5 || !back.StartedAt.Equal(rec.StartedAt) {
		t.Errorf("NewRecord(Result()) = %+v", back)
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, wordpressRecord("scan-1")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load(ctx, "example.com")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil record")
	}
	if loaded.ID != "scan-1" {
		t.Errorf("ID = %q, want %q", loaded.ID, "scan-1")
	}
	if len(loaded.Matches) != 1 || loaded.Matches[0].Platform != "WordPress" {
		t.Errorf("Matches = %+v", loaded.Matches)
	}
	if len(loaded.AdminHits) != 1 || loaded.AdminHits[0].Path != "admin" {
		t.Errorf("AdminHits = %+v", loaded.AdminHits)
	}
	if loaded.Requests != 42 {
		t.Errorf("Requests = %d, want 42", loaded.Requests)
	}
	if loaded.EndedAt.Sub(loaded.StartedAt) != 3*time.Second {
		t.Errorf("duration = %v, want 3s", loaded.EndedAt.Sub(loaded.StartedAt))
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSQLiteStore_LoadLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := wordpressRecord("older")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := wordpressRecord("newer")
	newer.CreatedAt = time.Now().UTC()

	for _, rec := range []*Record{newer, older} {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s: %v", rec.ID, err)
		}
	}

	loaded, err := store.Load(ctx, "example.com")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil || loaded.ID != "newer" {
		t.Errorf("Load returned %+v, want newer", loaded)
	}
}

func TestSQLiteStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Load(ctx, "missing.test")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if rec != nil {
		t.Errorf("Load = %+v, want nil", rec)
	}

	rec, err = store.LoadByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("LoadByID returned error: %v", err)
	}
	if rec != nil {
		t.Errorf("LoadByID = %+v, want nil", rec)
	}
}

func TestSQLiteStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	records := []*Record{
		wordpressRecord("a"),
		{ID: "b", Domain: "other.test", CreatedAt: base.Add(2 * time.Minute)},
		wordpressRecord("c"),
	}
	records[0].CreatedAt = base
	records[2].CreatedAt = base.Add(4 * time.Minute)
	for _, rec := range records {
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save %s: %v", rec.ID, err)
		}
	}

	tests := []struct {
		name   string
		domain string
		want   []string
	}{
		{"all newest first", "", []string{"c", "b", "a"}},
		{"filtered", "example.com", []string{"c", "a"}},
		{"no match", "none.test", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.domain)
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List returned %d entries, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("entry %d ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}

	all, _ := store.List(ctx, "example.com")
	if len(all[0].Platforms) != 1 || all[0].Platforms[0] != "WordPress" {
		t.Errorf("Platforms = %v, want [WordPress]", all[0].Platforms)
	}
	if all[0].AdminHits != 1 {
		t.Errorf("AdminHits = %d, want 1", all[0].AdminHits)
	}
	if !all[0].CreatedAt.Equal(records[2].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", all[0].CreatedAt, records[2].CreatedAt)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, wordpressRecord("to-delete")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ok, err := store.Delete(ctx, "to-delete")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if !ok {
		t.Error("Delete reported missing record")
	}

	rec, err := store.LoadByID(ctx, "to-delete")
	if err != nil {
		t.Fatalf("LoadByID: %v", err)
	}
	if rec != nil {
		t.Error("record still exists after Delete")
	}

	ok, err = store.Delete(ctx, "to-delete")
	if err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
	if ok {
		t.Error("second Delete reported an existing record")
	}
}

func TestSQLiteStore_SaveUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := wordpressRecord("update-me")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec.AdminHits = append(rec.AdminHits, engine.AdminPathHit{Path: "login"})
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	list, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(list))
	}
	if list[0].AdminHits != 2 {
		t.Errorf("AdminHits = %d, want 2", list[0].AdminHits)
	}
}

func TestSQLiteStore_Cleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := wordpressRecord("old")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := store.Save(ctx, old); err != nil {
		t.Fatalf("Save old: %v", err)
	}
	if err := store.Save(ctx, wordpressRecord("new")); err != nil {
		t.Fatalf("Save new: %v", err)
	}

	deleted, err := store.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Cleanup deleted %d records, want 1", deleted)
	}

	if rec, _ := store.LoadByID(ctx, "old"); rec != nil {
		t.Error("old record still exists after cleanup")
	}
	if rec, _ := store.LoadByID(ctx, "new"); rec == nil {
		t.Error("new record was removed by cleanup")
	}
}

func TestSQLiteStore_EmptyID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := wordpressRecord("")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if len(rec.ID) != 36 {
		t.Errorf("generated ID = %q, want UUID", rec.ID)
	}

	loaded, err := store.LoadByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("LoadByID returned error: %v", err)
	}
	if loaded == nil || loaded.Domain != "example.com" {
		t.Errorf("LoadByID = %+v", loaded)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}
