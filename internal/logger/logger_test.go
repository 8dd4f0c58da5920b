package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "json")
	l.Info("picked", "article_id", "42")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if rec["article_id"] != "42" {
		t.Errorf("article_id = %v, want 42", rec["article_id"])
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false, "text").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line written at info level: %q", buf.String())
	}

	buf.Reset()
	New(&buf, true, "text").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug line missing at debug level: %q", buf.String())
	}
}

func TestOrDefault(t *testing.T) {
	if OrDefault(nil) != Logger {
		t.Error("nil logger should fall back to package logger")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(&buf, false, "text").With("invocation_id", "abc")
	ctx := NewContext(context.Background(), scoped)

	FromContext(ctx, nil).Info("hello")
	if !strings.Contains(buf.String(), "invocation_id=abc") {
		t.Errorf("scoped attributes missing: %q", buf.String())
	}

	fallback := New(&buf, false, "text")
	if FromContext(context.Background(), fallback) != fallback {
		t.Error("expected fallback logger for a bare context")
	}
}
