package builtin

import (
	"fmt"

	"github.com/tracelens/trace-diag/internal/diag/rules"
	"github.com/tracelens/trace-diag/internal/models"
)

// EmptyBodyRule flags POST and PUT exchanges whose recorded request
// payload does not exceed the configured minimum. Entries without a
// recorded payload size are ignored.
type EmptyBodyRule struct{}

// NewEmptyBodyRule constructs the rule.
func NewEmptyBodyRule() *EmptyBodyRule {
	return &EmptyBodyRule{}
}

func (r *EmptyBodyRule) ID() string { return "empty-request-body" }

func (r *EmptyBodyRule) Domains() []models.Label {
	return []models.Label{models.LabelAPI}
}

func (r *EmptyBodyRule) DefaultSeverity() models.Severity {
	return models.SeverityInfo
}

func (r *EmptyBodyRule) Evaluate(view rules.View) []models.Finding {
	minSize := view.Options().MinPayloadSize
	findings := make([]models.Finding, 0)
	for _, entry := range view.Entries() {
		if entry.Method != "POST" && entry.Method != "PUT" {
			continue
		}
		if entry.RequestBodySize == models.BodySizeUnknown || entry.RequestBodySize > minSize {
			continue
		}
		findings = append(findings, models.Finding{
			RuleID:   r.ID(),
			Severity: r.DefaultSeverity(),
			Message: fmt.Sprintf("%s request to %s carries an empty body (%d bytes)",
				entry.Method, entry.URL.Path, entry.RequestBodySize),
			EntryIDs: []int{entry.ID},
		})
	}
	return findings
}
