package snapshot_test

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"bangd/bang"
	"bangd/snapshot"
)

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	f := snapshot.NewFile(dir+"/nonexistent.json", nil)
	s := f.Load()
	if len(s.Bangs) != 0 {
		t.Fatalf("expected empty bangs, got %d", len(s.Bangs))
	}
	if s.RecentlyUsed == nil {
		t.Fatal("expected non-nil recentlyUsed")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := t.TempDir() + "/bangs.json"
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := snapshot.NewFile(path, nil).Load()
	if len(s.Bangs) != 0 {
		t.Fatalf("expected empty bangs for malformed data, got %+v", s.Bangs)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := t.TempDir() + "/nested/bangs.json"
	f := snapshot.NewFile(path, nil)

	rank := 3
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	in := snapshot.Snapshot{
		Bangs: []bang.Record{
			{ID: "abc", Key: "g", Name: "Google", URL: "https://google.com/search?q={{{s}}}", Domain: "google.com", Rank: &rank},
		},
		Default:      "g",
		UpdatedAt:    now,
		RecentlyUsed: []string{"g"},
	}
	if err := f.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := snapshot.NewFile(path, nil).Load()
	if len(got.Bangs) != 1 || got.Bangs[0].ID != "abc" || got.Bangs[0].Key != "g" {
		t.Fatalf("unexpected bangs: %+v", got.Bangs)
	}
	if got.Bangs[0].Rank == nil || *got.Bangs[0].Rank != 3 {
		t.Fatalf("rank not preserved: %+v", got.Bangs[0])
	}
	if got.Default != "g" || !got.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}

func TestSavedShapeUsesShortFieldNames(t *testing.T) {
	path := t.TempDir() + "/bangs.json"
	f := snapshot.NewFile(path, nil)
	f.Save(snapshot.Snapshot{Bangs: []bang.Record{{Key: "g", Name: "Google", URL: "u", Domain: "d"}}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"t": "g"`, `"s": "Google"`, `"u": "u"`, `"d": "d"`} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("expected %s in %s", field, data)
		}
	}
	if strings.Contains(string(data), `"c"`) {
		t.Fatalf("empty optional fields should be omitted: %s", data)
	}
}

func TestMarkUsedMRUOrder(t *testing.T) {
	exists := func(string) bool { return true }
	var recent []string
	recent = snapshot.MarkUsed(recent, "a", exists)
	recent = snapshot.MarkUsed(recent, "b", exists)
	recent = snapshot.MarkUsed(recent, "c", exists)

	want := []string{"c", "b", "a"}
	if len(recent) != len(want) {
		t.Fatalf("expected %v, got %v", want, recent)
	}
	for i, k := range want {
		if recent[i] != k {
			t.Fatalf("position %d: expected %q, got %q", i, k, recent[i])
		}
	}
}

func TestMarkUsedDeduplication(t *testing.T) {
	exists := func(string) bool { return true }
	recent := snapshot.MarkUsed([]string{"y", "X"}, "x", exists)
	if len(recent) != 2 || recent[0] != "x" || recent[1] != "y" {
		t.Fatalf("unexpected order: %v", recent)
	}
}

func TestMarkUsedCap10(t *testing.T) {
	exists := func(string) bool { return true }
	var recent []string
	for i := 0; i < 12; i++ {
		recent = snapshot.MarkUsed(recent, string(rune('a'+i)), exists)
	}
	if len(recent) != 10 {
		t.Fatalf("expected cap of 10, got %d: %v", len(recent), recent)
	}
}

func TestMarkUsedNonExistentKey(t *testing.T) {
	exists := func(k string) bool { return k == "a" }
	recent := snapshot.MarkUsed([]string{"a"}, "ghost", exists)
	if len(recent) != 1 || recent[0] != "a" {
		t.Fatalf("expected unchanged list, got %v", recent)
	}
}

func TestMarkUsedFiltersRemovedKeys(t *testing.T) {
	exists := func(k string) bool { return k != "b" }
	recent := snapshot.MarkUsed([]string{"a", "b"}, "a", exists)
	for _, k := range recent {
		if k == "b" {
			t.Fatalf("stale key 'b' should have been filtered out: %v", recent)
		}
	}
}

func TestConcurrentSave(t *testing.T) {
	path := t.TempDir() + "/bangs.json"
	f := snapshot.NewFile(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Save(snapshot.Snapshot{Bangs: []bang.Record{{Key: "p"}}})
		}()
	}
	wg.Wait()
	if got := f.Load(); len(got.Bangs) != 1 {
		t.Fatalf("expected 1 bang after concurrent saves, got %d", len(got.Bangs))
	}
}
