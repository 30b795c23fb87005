package diag

import (
	"testing"

	"github.com/tracelens/trace-diag/internal/models"
)

func TestAggregateDeduplicates(t *testing.T) {
	entries := []models.Entry{
		testEntry(t, 0, 0, 10, "GET", "https://app.example.net/api/a"),
		testEntry(t, 1, 100, 10, "GET", "https://app.example.net/api/b"),
	}

	findings := []models.Finding{
		{RuleID: "rule-a", Severity: models.SeverityWarning, Message: "first", EntryIDs: []int{0, 1}},
		{RuleID: "rule-a", Severity: models.SeverityWarning, Message: "second", EntryIDs: []int{1, 0}},
	}

	aggregated := Aggregate(findings, entries)
	if len(aggregated) != 1 {
		t.Fatalf("expected 1 finding after dedupe, got %d", len(aggregated))
	}
	if aggregated[0].Message != "first" {
		t.Fatalf("dedupe must keep the first occurrence, got %q", aggregated[0].Message)
	}
}

func TestAggregateOrdering(t *testing.T) {
	entries := []models.Entry{
		testEntry(t, 0, 0, 10, "GET", "https://app.example.net/api/a"),
		testEntry(t, 1, 500, 10, "GET", "https://app.example.net/api/b"),
		testEntry(t, 2, 1000, 10, "GET", "https://app.example.net/api/c"),
	}

	findings := []models.Finding{
		{RuleID: "info-late", Severity: models.SeverityInfo, EntryIDs: []int{2}},
		{RuleID: "warn-late", Severity: models.SeverityWarning, EntryIDs: []int{2}},
		{RuleID: "warn-early", Severity: models.SeverityWarning, EntryIDs: []int{0}},
		{RuleID: "crit", Severity: models.SeverityCritical, EntryIDs: []int{1}},
	}

	aggregated := Aggregate(findings, entries)
	got := make([]string, 0, len(aggregated))
	for _, f := range aggregated {
		got = append(got, f.RuleID)
	}

	want := []string{"crit", "warn-early", "warn-late", "info-late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", got, want)
		}
	}
}
