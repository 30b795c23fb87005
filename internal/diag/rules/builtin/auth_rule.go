package builtin

import (
	"fmt"
	"strings"

	"github.com/tracelens/trace-diag/internal/diag/rules"
	"github.com/tracelens/trace-diag/internal/models"
)

// Unauthenticated401Rule flags 401 responses where the request carried
// none of the configured auth headers: the caller never authenticated
// rather than presenting bad credentials. CORS preflights are exempt
// since browsers strip credentials from them.
type Unauthenticated401Rule struct{}

// NewUnauthenticated401Rule constructs the rule.
func NewUnauthenticated401Rule() *Unauthenticated401Rule {
	return &Unauthenticated401Rule{}
}

func (r *Unauthenticated401Rule) ID() string { return "unauthenticated-401" }

func (r *Unauthenticated401Rule) Domains() []models.Label {
	return []models.Label{models.LabelAPI}
}

func (r *Unauthenticated401Rule) DefaultSeverity() models.Severity {
	return models.SeverityCritical
}

func (r *Unauthenticated401Rule) Evaluate(view rules.View) []models.Finding {
	headerNames := view.Options().AuthHeaderNames
	findings := make([]models.Finding, 0)
	for _, entry := range view.Entries() {
		if entry.Status != 401 {
			continue
		}
		if view.Labels(entry.ID).Has(models.LabelCORSPreflight) {
			continue
		}
		if hasAnyHeader(entry, headerNames) {
			continue
		}
		findings = append(findings, models.Finding{
			RuleID:   r.ID(),
			Severity: r.DefaultSeverity(),
			Message: fmt.Sprintf("Request to %s was rejected with 401 and carried none of the expected auth headers (%s)",
				entry.URL.Path, strings.Join(headerNames, ", ")),
			EntryIDs: []int{entry.ID},
		})
	}
	return findings
}

func hasAnyHeader(entry models.Entry, names []string) bool {
	if entry.RequestHeaders == nil {
		return false
	}
	for _, name := range names {
		if entry.RequestHeaders.Get(name) != "" {
			return true
		}
	}
	return false
}
