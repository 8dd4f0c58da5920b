// Package history remembers which articles were already published so the bot
// does not post the same one twice inside a TTL window.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/deusflow/trovebot/internal/trove"
)

// PostedArticle is one published article.
type PostedArticle struct {
	ID       string    `json:"id"`
	Heading  string    `json:"heading"`
	Link     string    `json:"link"`
	Date     string    `json:"date"`
	PostedAt time.Time `json:"posted_at"`
}

// FileHistory keeps posted articles in a JSON file.
type FileHistory struct {
	filePath string
	ttl      time.Duration
	items    map[string]PostedArticle
	mu       sync.RWMutex
	now      func() time.Time
}

func NewFileHistory(filePath string, ttlHours int) *FileHistory {
	return &FileHistory{
		filePath: filePath,
		ttl:      time.Duration(ttlHours) * time.Hour,
		items:    make(map[string]PostedArticle),
		now:      time.Now,
	}
}

// Load reads the history file, dropping expired entries. A missing or empty
// file is an empty history.
func (h *FileHistory) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := os.ReadFile(h.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []PostedArticle
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	cutoff := h.cutoff()
	for _, item := range items {
		if item.PostedAt.After(cutoff) {
			h.items[item.ID] = item
		}
	}
	return nil
}

// Save drops expired entries and writes the rest, oldest first, replacing the
// file atomically.
func (h *FileHistory) Save() error {
	h.mu.Lock()
	h.cleanupLocked()
	items := make([]PostedArticle, 0, len(h.items))
	for _, item := range h.items {
		items = append(items, item)
	}
	h.mu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].PostedAt.Before(items[j].PostedAt) })

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.filePath), ".history-*")
	if err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.filePath); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// IsAlreadyPosted reports whether id was posted inside the TTL window.
func (h *FileHistory) IsAlreadyPosted(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	item, ok := h.items[id]
	return ok && item.PostedAt.After(h.cutoff())
}

func (h *FileHistory) MarkAsPosted(a trove.Article) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[a.ID] = PostedArticle{
		ID:       a.ID,
		Heading:  a.Heading,
		Link:     a.URL(),
		Date:     a.Date,
		PostedAt: h.now(),
	}
}

func (h *FileHistory) cleanupLocked() {
	cutoff := h.cutoff()
	for id, item := range h.items {
		if !item.PostedAt.After(cutoff) {
			delete(h.items, id)
		}
	}
}

func (h *FileHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

func (h *FileHistory) cutoff() time.Time {
	return h.now().Add(-h.ttl)
}
