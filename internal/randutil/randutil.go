// Package randutil provides the random source shared by the stopword picker,
// the narrowing engine and the bot.
package randutil

import (
	"math/rand/v2"
	"sync"
)

// Source picks an integer in [0, n).
type Source interface {
	IntN(n int) int
}

// Locked is a Source safe for concurrent invocations.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

func New(seed uint64) *Locked {
	return &Locked{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom seeds from the runtime's entropy.
func NewRandom() *Locked {
	return New(rand.Uint64())
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Choice returns a uniformly chosen element, or the zero value for an empty slice.
func Choice[T any](src Source, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[src.IntN(len(items))], true
}
