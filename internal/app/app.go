// Package app runs one bot invocation: find a random article, skip it if it
// was posted recently, publish it, and remember it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/trovebot/internal/logger"
	"github.com/deusflow/trovebot/internal/metrics"
	"github.com/deusflow/trovebot/internal/narrow"
	"github.com/deusflow/trovebot/internal/randutil"
	"github.com/deusflow/trovebot/internal/trove"
)

type Outcome string

const (
	OutcomePublished   Outcome = "published"
	OutcomeNoCandidate Outcome = "no_candidate"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeFailed      Outcome = "failed"
)

// Finder is the narrowing engine.
type Finder interface {
	FindRandomArticle(ctx context.Context, keyword string, filters map[string][]string) (trove.Article, error)
}

// Publisher delivers a chosen article somewhere.
type Publisher interface {
	Publish(ctx context.Context, a trove.Article) error
}

// History records posted articles. A nil History disables duplicate checks.
type History interface {
	IsAlreadyPosted(id string) bool
	MarkAsPosted(a trove.Article)
	Save() error
}

type Options struct {
	Finder            Finder
	Publisher         Publisher
	History           History
	Keywords          []string
	Filters           map[string][]string
	DuplicateAttempts int
	Metrics           *metrics.Metrics
	Rand              randutil.Source
	Logger            *slog.Logger
}

type Bot struct {
	finder    Finder
	publisher Publisher
	history   History
	keywords  []string
	filters   map[string][]string
	attempts  int
	stats     *metrics.Metrics
	rng       randutil.Source
	log       *slog.Logger
}

func New(opts Options) *Bot {
	b := &Bot{
		finder:    opts.Finder,
		publisher: opts.Publisher,
		history:   opts.History,
		keywords:  opts.Keywords,
		filters:   opts.Filters,
		attempts:  opts.DuplicateAttempts,
		stats:     opts.Metrics,
		rng:       opts.Rand,
		log:       logger.OrDefault(opts.Logger),
	}
	if b.attempts < 1 {
		b.attempts = 1
	}
	if b.stats == nil {
		b.stats = metrics.Global
	}
	if b.rng == nil {
		b.rng = randutil.NewRandom()
	}
	return b
}

// RunOnce performs one invocation. Finding nothing is a normal outcome and
// returns a nil error; running out of time is a failure.
func (b *Bot) RunOnce(ctx context.Context) (Outcome, error) {
	start := time.Now()
	b.stats.IncrementInvocations()
	defer func() { b.stats.RecordProcessingTime(time.Since(start)) }()

	log := b.log.With("invocation_id", uuid.NewString())
	ctx = logger.NewContext(ctx, log)

	for attempt := 1; attempt <= b.attempts; attempt++ {
		keyword, _ := randutil.Choice(b.rng, b.keywords)
		log.Info("searching", "attempt", attempt, "keyword", keyword)

		article, err := b.finder.FindRandomArticle(ctx, keyword, b.filters)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Error("invocation cut short", "keyword", keyword, "error", err)
			metrics.Invocations.WithLabelValues(string(OutcomeFailed)).Inc()
			b.stats.SetError(err.Error())
			return OutcomeFailed, fmt.Errorf("find article: %w", err)
		}
		if errors.Is(err, narrow.ErrNoCandidate) {
			log.Info("no candidate article", "keyword", keyword, "reason", err)
			b.stats.IncrementNoCandidate()
			b.stats.SetLastRun()
			return OutcomeNoCandidate, nil
		}
		if err != nil {
			b.stats.SetError(err.Error())
			return OutcomeFailed, fmt.Errorf("find article: %w", err)
		}

		if b.history != nil && b.history.IsAlreadyPosted(article.ID) {
			log.Info("article already posted, retrying", "article_id", article.ID)
			b.stats.IncrementDuplicatesSkipped()
			continue
		}

		if err := b.publisher.Publish(ctx, article); err != nil {
			b.stats.IncrementPublishFailures()
			b.stats.SetError(err.Error())
			return OutcomeFailed, fmt.Errorf("publish article %s: %w", article.ID, err)
		}

		if b.history != nil {
			b.history.MarkAsPosted(article)
			if err := b.history.Save(); err != nil {
				log.Error("failed to save history", "error", err)
			}
		}

		log.Info("article published", "article_id", article.ID, "heading", article.Heading, "url", article.URL())
		b.stats.RecordArticleFound(article.ID)
		b.stats.SetLastRun()
		return OutcomePublished, nil
	}

	log.Warn("every candidate was a recent duplicate", "attempts", b.attempts)
	metrics.Invocations.WithLabelValues(string(OutcomeDuplicate)).Inc()
	b.stats.SetLastRun()
	return OutcomeDuplicate, nil
}
