package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deusflow/trovebot/internal/trove"
)

func newTestHistory(t *testing.T, now *time.Time) *FileHistory {
	t.Helper()
	h := NewFileHistory(filepath.Join(t.TempDir(), "posted.json"), 24)
	h.now = func() time.Time { return *now }
	return h
}

func TestFileHistory_MarkAndCheck(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTestHistory(t, &now)

	if h.IsAlreadyPosted("42") {
		t.Fatal("empty history reported a post")
	}
	h.MarkAsPosted(trove.Article{ID: "42", Heading: "FIRE AT BALLARAT"})
	if !h.IsAlreadyPosted("42") {
		t.Error("marked article not reported")
	}

	now = now.Add(25 * time.Hour)
	if h.IsAlreadyPosted("42") {
		t.Error("article still reported after the TTL")
	}
	if err := h.Save(); err != nil {
		t.Fatal(err)
	}
	if h.Len() != 0 {
		t.Errorf("Len after save = %d, want 0", h.Len())
	}
}

func TestFileHistory_SaveDropsExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := NewFileHistory(filepath.Join(t.TempDir(), "posted.json"), 1)
	h.now = func() time.Time { return now }

	h.MarkAsPosted(trove.Article{ID: "old"})
	now = now.Add(48 * time.Hour)
	h.MarkAsPosted(trove.Article{ID: "new"})

	if err := h.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}

	data, err := os.ReadFile(h.filePath)
	if err != nil {
		t.Fatal(err)
	}
	var items []PostedArticle
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != "new" {
		t.Errorf("saved items = %+v, want only the live entry", items)
	}
}

func TestFileHistory_SaveLoadRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTestHistory(t, &now)
	h.MarkAsPosted(trove.Article{ID: "1", Heading: "A"})
	now = now.Add(time.Hour)
	h.MarkAsPosted(trove.Article{ID: "2", Heading: "B"})

	if err := h.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(h.filePath)
	if err != nil {
		t.Fatal(err)
	}
	var items []PostedArticle
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != "1" {
		t.Fatalf("saved items = %+v, want oldest first", items)
	}
	if items[0].Link != "http://nla.gov.au/nla.news-article1" {
		t.Errorf("link = %q", items[0].Link)
	}

	// 24.5h after the first post only the second is inside the window.
	reloaded := NewFileHistory(h.filePath, 24)
	later := now.Add(23*time.Hour + 30*time.Minute)
	reloaded.now = func() time.Time { return later }
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.IsAlreadyPosted("1") {
		t.Error("expired entry survived reload")
	}
	if !reloaded.IsAlreadyPosted("2") {
		t.Error("live entry lost on reload")
	}
}

func TestFileHistory_LoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := NewFileHistory(filepath.Join(dir, "absent.json"), 24).Load(); err != nil {
		t.Errorf("missing file: %v", err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewFileHistory(empty, 24).Load(); err != nil {
		t.Errorf("empty file: %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewFileHistory(bad, 24).Load(); err == nil {
		t.Error("expected error for a corrupt file")
	}
}
