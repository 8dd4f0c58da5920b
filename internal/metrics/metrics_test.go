package metrics

import (
	"testing"
	"time"
)

func TestMetrics_ProcessingAverage(t *testing.T) {
	m := &Metrics{IsHealthy: true}
	m.RecordProcessingTime(2 * time.Second)
	m.RecordProcessingTime(4 * time.Second)

	stats := m.GetStats()
	if got := stats["average_processing_time_ms"].(int64); got != 3000 {
		t.Errorf("average = %d ms, want 3000", got)
	}
	if got := stats["last_processing_time_ms"].(int64); got != 4000 {
		t.Errorf("last = %d ms, want 4000", got)
	}
}

func TestMetrics_HealthFollowsLastOutcome(t *testing.T) {
	m := &Metrics{IsHealthy: true}
	m.SetError("publish failed")
	if m.Healthy() {
		t.Error("expected unhealthy after SetError")
	}
	if m.GetStats()["last_error"] != "publish failed" {
		t.Error("last_error not recorded")
	}
	m.SetLastRun()
	if !m.Healthy() {
		t.Error("expected healthy after SetLastRun")
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}
	m.IncrementInvocations()
	m.RecordArticleFound("123")
	m.IncrementNoCandidate()
	m.IncrementDuplicatesSkipped()
	m.IncrementPublishFailures()

	stats := m.GetStats()
	for key, want := range map[string]int64{
		"total_invocations":  1,
		"articles_found":     1,
		"no_candidate":       1,
		"duplicates_skipped": 1,
		"publish_failures":   1,
	} {
		if got := stats[key].(int64); got != want {
			t.Errorf("%s = %d, want %d", key, got, want)
		}
	}
	if stats["last_article_id"] != "123" {
		t.Errorf("last_article_id = %v", stats["last_article_id"])
	}
}
