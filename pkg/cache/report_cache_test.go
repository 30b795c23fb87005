package cache

import (
	"testing"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

func TestReportCacheRoundTrip(t *testing.T) {
	c := NewReportCache(time.Minute)

	if _, ok := c.Get("digest"); ok {
		t.Fatal("empty cache must miss")
	}

	want := models.Report{ReportID: "r1", EntryCount: 3}
	c.Set("digest", want)

	got, ok := c.Get("digest")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.ReportID != "r1" || got.EntryCount != 3 {
		t.Fatalf("unexpected report %+v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("unexpected length %d", c.Len())
	}
}

func TestReportCacheExpiry(t *testing.T) {
	c := NewReportCache(10 * time.Millisecond)
	c.Set("digest", models.Report{ReportID: "r1"})

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("digest"); ok {
		t.Fatal("expired entry must miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read, length %d", c.Len())
	}
}

func TestReportCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewReportCache(0)
	c.Set("digest", models.Report{ReportID: "r1"})

	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("digest"); !ok {
		t.Fatal("zero TTL entries must persist")
	}
}

func TestReportCacheOverwrite(t *testing.T) {
	c := NewReportCache(time.Minute)
	c.Set("digest", models.Report{ReportID: "old"})
	c.Set("digest", models.Report{ReportID: "new"})

	got, ok := c.Get("digest")
	if !ok || got.ReportID != "new" {
		t.Fatalf("expected overwritten report, got %+v ok=%v", got, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("overwrite must not grow the cache, length %d", c.Len())
	}
}
