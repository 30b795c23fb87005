package models

import (
	"testing"
	"time"
)

func TestDefaultOptionsValid(t *testing.T) {
	if err := DefaultAnalysisOptions().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AnalysisOptions)
	}{
		{"zero latency", func(o *AnalysisOptions) { o.MaxLatencyMs = 0 }},
		{"negative payload", func(o *AnalysisOptions) { o.MinPayloadSize = -1 }},
		{"negative slack", func(o *AnalysisOptions) { o.CorrelationSlackMs = -1 }},
		{"negative window", func(o *AnalysisOptions) { o.SignalingWindowMs = -1 }},
		{"skip rate above one", func(o *AnalysisOptions) { o.MaxSkipRate = 1.1 }},
		{"negative skip rate", func(o *AnalysisOptions) { o.MaxSkipRate = -0.1 }},
		{"negative threshold", func(o *AnalysisOptions) { o.ParallelThreshold = -1 }},
		{"empty expiry param", func(o *AnalysisOptions) { o.ExpiryQueryParam = "" }},
		{"malformed glob", func(o *AnalysisOptions) { o.APIPathPatterns = []string{"/api/["} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultAnalysisOptions()
			tc.mutate(&opts)
			if err := opts.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	opts := DefaultAnalysisOptions()
	if opts.MaxLatency() != time.Second {
		t.Fatalf("unexpected latency threshold %v", opts.MaxLatency())
	}
	if opts.CorrelationSlack() != 2*time.Second {
		t.Fatalf("unexpected slack %v", opts.CorrelationSlack())
	}
	if opts.SignalingWindow() != 5*time.Second {
		t.Fatalf("unexpected window %v", opts.SignalingWindow())
	}
}

func TestLabelSet(t *testing.T) {
	set := NewLabelSet(LabelAPI)
	set.Add(LabelSignaling)

	if !set.Has(LabelAPI) || !set.Has(LabelSignaling) {
		t.Fatal("added labels must be present")
	}
	if set.Has(LabelNATTraversal) {
		t.Fatal("absent label reported present")
	}
	if !set.HasAny(LabelNATTraversal, LabelAPI) {
		t.Fatal("HasAny should match on any listed label")
	}

	labels := set.Labels()
	if len(labels) != 2 || labels[0] != LabelAPI || labels[1] != LabelSignaling {
		t.Fatalf("Labels must be sorted, got %v", labels)
	}
}

func TestEntryHelpers(t *testing.T) {
	e := Entry{
		Start:    time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC),
		Duration: 250 * time.Millisecond,
	}
	if !e.End().Equal(e.Start.Add(250 * time.Millisecond)) {
		t.Fatalf("unexpected end %v", e.End())
	}
	if !e.Incomplete() {
		t.Fatal("zero status means incomplete")
	}
	e.Status = 200
	if e.Incomplete() {
		t.Fatal("entry with status is complete")
	}
}
