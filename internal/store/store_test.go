package store

import (
	"testing"
	"time"

	"github.com/shakerwatch/shakerwatch/internal/telemetry"
)

func entry(id string) *Entry {
	return &Entry{
		ID:   id,
		Name: id + ".csv",
		Series: telemetry.Series{
			Readings: []telemetry.Reading{{Date: "2024-01-01", Load: 50}},
		},
	}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	st := New(time.Hour)
	st.Put(entry("ds-1"))

	e, ok := st.Get("ds-1")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Name != "ds-1.csv" {
		t.Errorf("Name: got %q, want ds-1.csv", e.Name)
	}
	if e.UploadedAt.IsZero() {
		t.Error("UploadedAt: not stamped")
	}
}

func TestGet_ExcludesExpired(t *testing.T) {
	base := time.Now()
	st := New(time.Hour)

	st.now = fixedClock(base)
	st.Put(entry("ds"))

	if _, ok := st.Get("ds"); !ok {
		t.Fatal("Get: fresh entry should be live")
	}

	// Past the TTL but before eviction runs: the entry must read as gone.
	st.now = fixedClock(base.Add(2 * time.Hour))
	if _, ok := st.Get("ds"); ok {
		t.Fatal("Get: expired entry should not be returned")
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1 (eviction has not run)", st.Count())
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(time.Hour)
	_, ok := st.Get("unknown")
	if ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := New(time.Hour)
	st.Put(entry("ds"))

	e2 := entry("ds")
	e2.Name = "replacement.csv"
	st.Put(e2)

	e, ok := st.Get("ds")
	if !ok {
		t.Fatal("Get: expected entry after two Puts")
	}
	if e.Name != "replacement.csv" {
		t.Errorf("Name: got %q, want replacement.csv", e.Name)
	}
	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1", st.Count())
	}
}

func TestList_ExcludesExpired(t *testing.T) {
	base := time.Now()
	st := New(time.Hour)

	st.now = fixedClock(base.Add(-2 * time.Hour)) // expired
	st.Put(entry("old"))

	st.now = fixedClock(base) // live
	st.Put(entry("new"))

	st.now = fixedClock(base)
	entries := st.List()

	if len(entries) != 1 {
		t.Fatalf("List: got %d entries, want 1", len(entries))
	}
	if entries[0].ID != "new" {
		t.Errorf("List[0].ID: got %q, want new", entries[0].ID)
	}
}

func TestList_NewestFirst(t *testing.T) {
	base := time.Now()
	st := New(time.Hour)

	st.now = fixedClock(base.Add(-2 * time.Minute))
	st.Put(entry("first"))
	st.now = fixedClock(base)
	st.Put(entry("second"))

	entries := st.List()
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "second" || entries[1].ID != "first" {
		t.Errorf("order: got %q, %q", entries[0].ID, entries[1].ID)
	}
}

func TestEvict_RemovesExpired(t *testing.T) {
	base := time.Now()
	st := New(time.Hour)

	st.now = fixedClock(base.Add(-2 * time.Hour))
	st.Put(entry("old1"))
	st.Put(entry("old2"))

	st.now = fixedClock(base)
	st.Put(entry("live"))

	removed := st.Evict(base)
	if removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(time.Hour)

	st.now = fixedClock(base)
	st.Put(entry("ds"))

	if removed := st.Evict(base); removed != 0 {
		t.Errorf("Evict: removed %d, want 0", removed)
	}
	if _, ok := st.Get("ds"); !ok {
		t.Error("live entry was evicted")
	}
}
