// Package narrow turns an open-ended keyword query into a result set small
// enough to sample from, by applying random facet constraints one at a time.
//
// Sampling is uniform over the first page of the narrowed set, not over every
// document that matches the keyword. Narrowing stops as soon as the set fits
// in a page, which bounds the number of API calls per invocation.
package narrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deusflow/trovebot/internal/logger"
	"github.com/deusflow/trovebot/internal/metrics"
	"github.com/deusflow/trovebot/internal/randutil"
	"github.com/deusflow/trovebot/internal/trove"
)

// ErrNoCandidate is the single "nothing found" outcome. Upstream outages and
// genuinely empty result sets both end here.
var ErrNoCandidate = errors.New("no candidate article")

// Searcher is the resilient search client. Implementations absorb their own
// failures and return zero values instead.
type Searcher interface {
	Count(ctx context.Context, q trove.Query) int
	Fetch(ctx context.Context, q trove.Query, pageSize int) trove.SearchResult
	FacetValues(ctx context.Context, q trove.Query, facet string) []string
}

// WordPicker supplies fallback query words.
type WordPicker interface {
	Pick() string
}

type Config struct {
	Facets            []string // narrowing stack, last entry tried first
	ZeroResultRetries int      // recovery counts after an initial zero
	Threshold         int      // narrow while the count is above this
	PageSize          int      // candidates fetched for the final pick
	Zone              string
}

func DefaultConfig() Config {
	return Config{
		Facets:            DefaultFacets,
		ZeroResultRetries: 10,
		Threshold:         100,
		PageSize:          100,
		Zone:              trove.DefaultZone,
	}
}

type Engine struct {
	search Searcher
	words  WordPicker
	rng    randutil.Source
	cfg    Config
	log    *slog.Logger
}

func New(search Searcher, words WordPicker, rng randutil.Source, cfg Config, log *slog.Logger) *Engine {
	if cfg.Facets == nil {
		cfg.Facets = DefaultFacets
	}
	if cfg.ZeroResultRetries < 0 {
		cfg.ZeroResultRetries = 0
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 100
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if rng == nil {
		rng = randutil.NewRandom()
	}
	return &Engine{search: search, words: words, rng: rng, cfg: cfg, log: log}
}

// FindRandomArticle returns one article matching keyword and the required
// filters, or ErrNoCandidate. An empty keyword searches for a random stopword.
func (e *Engine) FindRandomArticle(ctx context.Context, keyword string, filters map[string][]string) (trove.Article, error) {
	log := logger.FromContext(ctx, e.log)
	keyword = strings.TrimSpace(keyword)

	q, catalog := e.initialize(keyword, filters)
	log.Debug("search initialised", "term", q.Term(), "facets", catalog.Names())

	q, total := e.recoverZero(ctx, q, keyword)
	log.Debug("initial count", "term", q.Term(), "total", total)

	q, total, rounds := e.narrow(ctx, log, q, total, catalog)
	metrics.NarrowingRounds.Observe(float64(rounds))
	log.Debug("narrowing done", "total", total, "rounds", rounds, "applied", q.AppliedFacets())

	if err := ctx.Err(); err != nil {
		return trove.Article{}, fmt.Errorf("%w: %w", ErrNoCandidate, err)
	}
	return e.pick(ctx, q, total)
}

func (e *Engine) initialize(keyword string, filters map[string][]string) (trove.Query, *FacetCatalog) {
	term := keyword
	if term == "" {
		term = phrase(e.words.Pick())
	}
	q := trove.NewQuery(term, filters).WithZone(e.cfg.Zone)
	return q, NewFacetCatalog(e.cfg.Facets, filters)
}

// recoverZero re-counts while the result set is empty. With a caller keyword
// the query cannot change, so the same query is counted again; the loop is
// bounded either way.
func (e *Engine) recoverZero(ctx context.Context, q trove.Query, keyword string) (trove.Query, int) {
	total := e.search.Count(ctx, q)
	for attempt := 1; total == 0 && attempt <= e.cfg.ZeroResultRetries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		if keyword == "" {
			q = q.WithTerm(phrase(e.words.Pick()))
		}
		total = e.search.Count(ctx, q)
	}
	return q, total
}

// narrow consumes one facet per round, so it stops after at most
// catalog.Len() rounds even if the count never drops.
func (e *Engine) narrow(ctx context.Context, log *slog.Logger, q trove.Query, total int, catalog *FacetCatalog) (trove.Query, int, int) {
	rounds := 0
	for total > e.cfg.Threshold {
		if ctx.Err() != nil {
			break
		}
		facet, ok := catalog.Pop()
		if !ok {
			break
		}
		rounds++

		value, ok := randutil.Choice(e.rng, e.search.FacetValues(ctx, q, facet))
		if !ok {
			log.Debug("facet has no values, skipping", "facet", facet)
			continue
		}
		q = q.WithFacet(facet, value)
		total = e.search.Count(ctx, q)
		log.Debug("facet applied", "facet", facet, "value", value, "total", total)
	}
	return q, total, rounds
}

func (e *Engine) pick(ctx context.Context, q trove.Query, total int) (trove.Article, error) {
	if total <= 0 {
		return trove.Article{}, ErrNoCandidate
	}
	page := e.search.Fetch(ctx, q, e.cfg.PageSize)
	article, err := Select(page.Articles, e.rng)
	if err != nil {
		return trove.Article{}, fmt.Errorf("%w: %w", ErrNoCandidate, err)
	}
	return article, nil
}

func phrase(word string) string {
	return `"` + word + `"`
}
