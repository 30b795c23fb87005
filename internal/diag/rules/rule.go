// Package rules defines the diagnostic rule contract and the registry
// that evaluates registered rules against one analysis snapshot.
package rules

import (
	"github.com/tracelens/trace-diag/internal/models"
)

// Rule is a named, versionable predicate over the classified and
// correlated entry set. Implementations must be pure with respect to
// the supplied view: they may carry construction-time configuration but
// must not retain state across Evaluate invocations, and they never
// mutate entries, classifications, or links.
type Rule interface {
	// ID returns the stable rule identifier used in findings.
	ID() string
	// Domains lists the classification labels the rule applies to; the
	// registry restricts the rule's view to entries carrying at least
	// one of them.
	Domains() []models.Label
	// DefaultSeverity is the severity the rule emits unless it decides
	// otherwise per finding.
	DefaultSeverity() models.Severity
	// Evaluate inspects the view and returns zero or more findings. An
	// input shape the rule does not understand yields no finding, never
	// an error.
	Evaluate(view View) []models.Finding
}

// View is the read-only snapshot a rule evaluates against: the entries
// matching the rule's domains, all links touching those entries, the
// full classification, and the run configuration.
type View struct {
	entries []models.Entry
	links   []models.CorrelationLink
	class   models.Classification
	opts    models.AnalysisOptions
}

// NewView builds a view over the given restricted snapshot. Exposed for
// rule unit tests; the registry builds views itself during evaluation.
func NewView(entries []models.Entry, links []models.CorrelationLink, class models.Classification, opts models.AnalysisOptions) View {
	return View{entries: entries, links: links, class: class, opts: opts}
}

// Entries returns the entries visible to the rule, in trace order.
func (v View) Entries() []models.Entry {
	return v.entries
}

// Links returns the correlation links touching the visible entries.
func (v View) Links() []models.CorrelationLink {
	return v.links
}

// Labels returns the label set of an entry, which may be nil.
func (v View) Labels(id int) models.LabelSet {
	return v.class.LabelsOf(id)
}

// Options returns the run configuration.
func (v View) Options() models.AnalysisOptions {
	return v.opts
}
