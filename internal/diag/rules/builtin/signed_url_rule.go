package builtin

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tracelens/trace-diag/internal/diag/rules"
	"github.com/tracelens/trace-diag/internal/models"
)

// ExpiredSignedURLRule flags requests whose signed URL had already
// expired when the request was issued. The entry's own capture
// timestamp is the reference clock, never the wall clock at analysis
// time, so replaying an old trace reproduces the same verdict.
type ExpiredSignedURLRule struct{}

// NewExpiredSignedURLRule constructs the rule.
func NewExpiredSignedURLRule() *ExpiredSignedURLRule {
	return &ExpiredSignedURLRule{}
}

func (r *ExpiredSignedURLRule) ID() string { return "expired-signed-url" }

func (r *ExpiredSignedURLRule) Domains() []models.Label {
	return []models.Label{models.LabelAPI}
}

func (r *ExpiredSignedURLRule) DefaultSeverity() models.Severity {
	return models.SeverityCritical
}

func (r *ExpiredSignedURLRule) Evaluate(view rules.View) []models.Finding {
	param := view.Options().ExpiryQueryParam
	findings := make([]models.Finding, 0)
	for _, entry := range view.Entries() {
		raw := entry.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		epoch, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Not the shape this rule understands; no finding.
			continue
		}
		expiry := time.Unix(epoch, 0)
		if !expiry.Before(entry.Start) {
			continue
		}
		findings = append(findings, models.Finding{
			RuleID:   r.ID(),
			Severity: r.DefaultSeverity(),
			Message: fmt.Sprintf("Signed URL for %s expired at %s, before the request started at %s",
				entry.URL.Path,
				expiry.UTC().Format(time.RFC3339),
				entry.Start.UTC().Format(time.RFC3339)),
			EntryIDs: []int{entry.ID},
		})
	}
	return findings
}
