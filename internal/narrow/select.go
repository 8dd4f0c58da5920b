package narrow

import (
	"errors"

	"github.com/deusflow/trovebot/internal/randutil"
	"github.com/deusflow/trovebot/internal/trove"
)

// ErrEmptyPage is returned by Select for a page with no articles.
var ErrEmptyPage = errors.New("empty result page")

// Select picks one article uniformly from page.
func Select(page []trove.Article, rng randutil.Source) (trove.Article, error) {
	a, ok := randutil.Choice(rng, page)
	if !ok {
		return trove.Article{}, ErrEmptyPage
	}
	return a, nil
}
