package stopwords

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/trovebot/internal/randutil"
)

// ErrEmptyList means the word file held no usable entries.
var ErrEmptyList = errors.New("stopword list is empty")

// Load reads a word list from a JSON array or YAML sequence.
//
//	["the", "and", "of"]
//
// or
//
//	- the
//	- and
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]string, error) {
	var raw []string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse stopwords: %w", err)
	}

	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil, ErrEmptyList
	}
	return words, nil
}

// Picker draws words uniformly from a fixed list. The list is never mutated
// after construction, so a Picker can be shared by concurrent invocations.
type Picker struct {
	words []string
	rng   randutil.Source
}

func NewPicker(words []string, rng randutil.Source) (*Picker, error) {
	if len(words) == 0 {
		return nil, ErrEmptyList
	}
	if rng == nil {
		rng = randutil.NewRandom()
	}
	cp := make([]string, len(words))
	copy(cp, words)
	return &Picker{words: cp, rng: rng}, nil
}

func (p *Picker) Pick() string {
	w, _ := randutil.Choice(p.rng, p.words)
	return w
}

func (p *Picker) Len() int {
	return len(p.words)
}
