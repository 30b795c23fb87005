package builtin

import (
	"fmt"

	"github.com/tracelens/trace-diag/internal/diag/rules"
	"github.com/tracelens/trace-diag/internal/models"
	"github.com/tracelens/trace-diag/internal/utils"
)

// HighLatencyRule flags API exchanges whose duration exceeds the
// configured threshold. Incomplete exchanges still count: a request
// that never completed is the slowest kind.
type HighLatencyRule struct{}

// NewHighLatencyRule constructs the rule.
func NewHighLatencyRule() *HighLatencyRule {
	return &HighLatencyRule{}
}

func (r *HighLatencyRule) ID() string { return "high-latency" }

func (r *HighLatencyRule) Domains() []models.Label {
	return []models.Label{models.LabelAPI}
}

func (r *HighLatencyRule) DefaultSeverity() models.Severity {
	return models.SeverityWarning
}

func (r *HighLatencyRule) Evaluate(view rules.View) []models.Finding {
	threshold := view.Options().MaxLatency()
	findings := make([]models.Finding, 0)
	for _, entry := range view.Entries() {
		if entry.Duration <= threshold {
			continue
		}
		findings = append(findings, models.Finding{
			RuleID:   r.ID(),
			Severity: r.DefaultSeverity(),
			Message: fmt.Sprintf("API request took %d ms, exceeding the %d ms latency threshold",
				utils.DurationMillis(entry.Duration), view.Options().MaxLatencyMs),
			EntryIDs: []int{entry.ID},
		})
	}
	return findings
}
