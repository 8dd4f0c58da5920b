package narrow

import (
	"errors"
	"testing"

	"github.com/deusflow/trovebot/internal/randutil"
)

func TestSelect_Uniform(t *testing.T) {
	const (
		trials    = 50000
		tolerance = 500
	)
	p := page("0", "1", "2", "3", "4")
	rng := randutil.New(20240601)

	hits := map[string]int{}
	for range trials {
		a, err := Select(p, rng)
		if err != nil {
			t.Fatal(err)
		}
		hits[a.ID]++
	}

	want := trials / len(p)
	for _, a := range p {
		got := hits[a.ID]
		if got < want-tolerance || got > want+tolerance {
			t.Errorf("article %s picked %d times, want %d±%d", a.ID, got, want, tolerance)
		}
	}
}

func TestSelect_EmptyPage(t *testing.T) {
	if _, err := Select(nil, randutil.New(1)); !errors.Is(err, ErrEmptyPage) {
		t.Errorf("err = %v, want ErrEmptyPage", err)
	}
}

func TestSelect_SingleArticle(t *testing.T) {
	a, err := Select(page("only"), randutil.New(1))
	if err != nil || a.ID != "only" {
		t.Errorf("Select = %q, %v", a.ID, err)
	}
}
