package patterns

import (
	"testing"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

func report(id string, createdAt time.Time, findings ...models.Finding) models.Report {
	return models.Report{
		ReportID:  id,
		CreatedAt: createdAt,
		Findings:  findings,
	}
}

func TestMineEmptyHistory(t *testing.T) {
	if got := NewMiner(nil).Mine(nil); got != nil {
		t.Fatalf("expected nil for empty history, got %+v", got)
	}
}

func TestMineAggregatesAcrossReports(t *testing.T) {
	base := time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)
	reports := []models.Report{
		report("r1", base,
			models.Finding{RuleID: "high-latency", Severity: models.SeverityWarning, Message: "slow a"},
			models.Finding{RuleID: "high-latency", Severity: models.SeverityWarning, Message: "slow b"},
			models.Finding{RuleID: "unauthenticated-401", Severity: models.SeverityCritical, Message: "401"},
		),
		report("r2", base.Add(time.Hour),
			models.Finding{RuleID: "high-latency", Severity: models.SeverityWarning, Message: "slow c"},
		),
		report("r3", base.Add(2*time.Hour)),
	}

	mined := NewMiner(nil).Mine(reports)
	if len(mined) != 2 {
		t.Fatalf("expected 2 recurring rules, got %d", len(mined))
	}

	latency := mined[0]
	if latency.RuleID != "high-latency" {
		t.Fatalf("most prevalent rule must sort first, got %q", latency.RuleID)
	}
	if latency.Occurrences != 3 || latency.Reports != 2 {
		t.Fatalf("unexpected counts: %d occurrences across %d reports", latency.Occurrences, latency.Reports)
	}
	if latency.Prevalence != 2.0/3.0 {
		t.Fatalf("unexpected prevalence %v", latency.Prevalence)
	}
	if !latency.LastSeen.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected last seen %v", latency.LastSeen)
	}
	if latency.SampleMsg != "slow a" {
		t.Fatalf("sample should be the first message seen, got %q", latency.SampleMsg)
	}

	auth := mined[1]
	if auth.RuleID != "unauthenticated-401" || auth.Severity != models.SeverityCritical {
		t.Fatalf("unexpected second rule %+v", auth)
	}
	if auth.Prevalence != 1.0/3.0 {
		t.Fatalf("unexpected prevalence %v", auth.Prevalence)
	}
}

func TestMineTiesBreakOnRuleID(t *testing.T) {
	base := time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)
	reports := []models.Report{
		report("r1", base,
			models.Finding{RuleID: "b-rule", Severity: models.SeverityInfo},
			models.Finding{RuleID: "a-rule", Severity: models.SeverityInfo},
		),
	}

	mined := NewMiner(nil).Mine(reports)
	if len(mined) != 2 || mined[0].RuleID != "a-rule" {
		t.Fatalf("equal prevalence must sort by rule ID, got %+v", mined)
	}
}
