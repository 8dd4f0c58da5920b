package stopwords

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/deusflow/trovebot/internal/randutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{"json array", `["the", "and", "of"]`, []string{"the", "and", "of"}, nil},
		{"yaml sequence", "- the\n- and\n", []string{"the", "and"}, nil},
		{"blank entries dropped", `["the", "  ", ""]`, []string{"the"}, nil},
		{"empty array", `[]`, nil, ErrEmptyList},
		{"only blanks", `["", " "]`, nil, ErrEmptyList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("word %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParse_NotAList(t *testing.T) {
	if _, err := Parse([]byte(`{"a": 1}`)); err == nil {
		t.Fatal("expected error for a mapping")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwords.json")
	if err := os.WriteFile(path, []byte(`["it", "was"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	words, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(words) != 2 {
		t.Errorf("len = %d, want 2", len(words))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPicker(t *testing.T) {
	if _, err := NewPicker(nil, nil); !errors.Is(err, ErrEmptyList) {
		t.Fatalf("NewPicker(nil) err = %v, want ErrEmptyList", err)
	}

	words := []string{"the", "and", "of", "to"}
	p, err := NewPicker(words, randutil.New(7))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]int{}
	for i := 0; i < 400; i++ {
		seen[p.Pick()]++
	}
	for _, w := range words {
		if seen[w] == 0 {
			t.Errorf("word %q never picked", w)
		}
	}
	if len(seen) != len(words) {
		t.Errorf("picked words outside the list: %v", seen)
	}
}
