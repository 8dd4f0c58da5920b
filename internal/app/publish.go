package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/deusflow/trovebot/internal/logger"
	"github.com/deusflow/trovebot/internal/trove"
)

// Post is the publishable form of an article.
type Post struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Date    string `json:"date"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	URL     string `json:"url"`
}

func NewPost(a trove.Article) Post {
	return Post{
		ID:      a.ID,
		Heading: a.Heading,
		Date:    a.Date,
		Title:   a.Title.Value,
		Snippet: a.Snippet,
		URL:     a.URL(),
	}
}

// WriterPublisher writes each article as one JSON line.
type WriterPublisher struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{w: w}
}

func (p *WriterPublisher) Publish(_ context.Context, a trove.Article) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := json.NewEncoder(p.w).Encode(NewPost(a)); err != nil {
		return fmt.Errorf("write post: %w", err)
	}
	return nil
}

// LogPublisher only logs the article.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, a trove.Article) error {
	logger.FromContext(ctx, p.Logger).Info("post", "id", a.ID, "heading", a.Heading, "date", a.Date, "url", a.URL())
	return nil
}
