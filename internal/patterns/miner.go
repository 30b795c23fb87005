// Package patterns mines stored reports for diagnostic findings that
// keep recurring across sessions.
package patterns

import (
	"log/slog"
	"sort"

	"github.com/tracelens/trace-diag/internal/models"
)

// Miner aggregates finding frequencies across report history.
type Miner struct {
	logger *slog.Logger
}

// NewMiner constructs a Miner.
func NewMiner(logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{logger: logger}
}

type ruleAggregate struct {
	occurrences int
	reports     map[string]struct{}
	severity    models.Severity
	lastSeen    models.Report
	sample      string
}

// Mine condenses the given reports into per-rule recurrence stats,
// ordered by prevalence descending.
func (m *Miner) Mine(reports []models.Report) []models.RecurringFinding {
	if len(reports) == 0 {
		return nil
	}

	aggregates := make(map[string]*ruleAggregate)
	for _, report := range reports {
		for _, finding := range report.Findings {
			agg, ok := aggregates[finding.RuleID]
			if !ok {
				agg = &ruleAggregate{reports: make(map[string]struct{})}
				aggregates[finding.RuleID] = agg
			}
			agg.occurrences++
			agg.reports[report.ReportID] = struct{}{}
			if finding.Severity.Rank() > agg.severity.Rank() {
				agg.severity = finding.Severity
			}
			if agg.sample == "" {
				agg.sample = finding.Message
			}
			if report.CreatedAt.After(agg.lastSeen.CreatedAt) {
				agg.lastSeen = report
			}
		}
	}

	mined := make([]models.RecurringFinding, 0, len(aggregates))
	for ruleID, agg := range aggregates {
		mined = append(mined, models.RecurringFinding{
			RuleID:      ruleID,
			Severity:    agg.severity,
			Occurrences: agg.occurrences,
			Reports:     len(agg.reports),
			Prevalence:  float64(len(agg.reports)) / float64(len(reports)),
			LastSeen:    agg.lastSeen.CreatedAt,
			SampleMsg:   agg.sample,
		})
	}

	sort.Slice(mined, func(i, j int) bool {
		if mined[i].Prevalence != mined[j].Prevalence {
			return mined[i].Prevalence > mined[j].Prevalence
		}
		return mined[i].RuleID < mined[j].RuleID
	})

	m.logger.Debug("mined recurring findings",
		slog.Int("reports", len(reports)), slog.Int("rules", len(mined)))
	return mined
}
