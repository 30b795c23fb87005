package builtin

import (
	"github.com/tracelens/trace-diag/internal/diag/rules"
	"github.com/tracelens/trace-diag/internal/models"
)

// NoNATTraversalRule fires when a trace shows signaling activity but no
// STUN/TURN exchange anywhere, a setup that typically fails behind NAT.
type NoNATTraversalRule struct{}

// NewNoNATTraversalRule constructs the rule.
func NewNoNATTraversalRule() *NoNATTraversalRule {
	return &NoNATTraversalRule{}
}

func (r *NoNATTraversalRule) ID() string { return "no-nat-traversal" }

func (r *NoNATTraversalRule) Domains() []models.Label {
	return []models.Label{models.LabelSignaling, models.LabelNATTraversal}
}

func (r *NoNATTraversalRule) DefaultSeverity() models.Severity {
	return models.SeverityWarning
}

func (r *NoNATTraversalRule) Evaluate(view rules.View) []models.Finding {
	signaling := make([]int, 0)
	for _, entry := range view.Entries() {
		labels := view.Labels(entry.ID)
		if labels.Has(models.LabelNATTraversal) {
			return nil
		}
		if labels.Has(models.LabelSignaling) {
			signaling = append(signaling, entry.ID)
		}
	}
	if len(signaling) == 0 {
		return nil
	}
	return []models.Finding{{
		RuleID:   r.ID(),
		Severity: r.DefaultSeverity(),
		Message:  "No STUN/TURN servers detected — NAT traversal may fail.",
		EntryIDs: signaling,
	}}
}
