package rules

import (
	"log/slog"
	"sync"

	"github.com/tracelens/trace-diag/internal/models"
)

// Registry holds the rules for one engine instance. Rules are
// registered at construction and never mutated afterwards; evaluation
// order is registration order, which only affects finding positions
// before the aggregator's final sort.
type Registry struct {
	rules  []Rule
	logger *slog.Logger
}

// NewRegistry constructs a registry over the given rules.
func NewRegistry(logger *slog.Logger, rules ...Rule) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{rules: rules, logger: logger}
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Evaluate runs every registered rule against its restricted view and
// collects the findings. A rule that panics contributes no findings;
// the anomaly is logged and never aborts the run.
func (r *Registry) Evaluate(entries []models.Entry, class models.Classification, links []models.CorrelationLink, opts models.AnalysisOptions) []models.Finding {
	findings := make([]models.Finding, 0)
	for _, rule := range r.rules {
		view := restrict(rule, entries, class, links, opts)
		findings = append(findings, r.evaluateOne(rule, view)...)
	}
	return findings
}

// EvaluateParallel runs every rule in its own goroutine over the shared
// read-only snapshot. Findings are collected per rule and concatenated
// in registration order, so the output is identical to Evaluate.
func (r *Registry) EvaluateParallel(entries []models.Entry, class models.Classification, links []models.CorrelationLink, opts models.AnalysisOptions) []models.Finding {
	results := make([][]models.Finding, len(r.rules))
	var wg sync.WaitGroup
	for i, rule := range r.rules {
		wg.Add(1)
		go func(i int, rule Rule) {
			defer wg.Done()
			view := restrict(rule, entries, class, links, opts)
			results[i] = r.evaluateOne(rule, view)
		}(i, rule)
	}
	wg.Wait()

	findings := make([]models.Finding, 0)
	for _, result := range results {
		findings = append(findings, result...)
	}
	return findings
}

func (r *Registry) evaluateOne(rule Rule, view View) (findings []models.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("rule evaluation anomaly, dropping its findings",
				slog.String("rule", rule.ID()), slog.Any("panic", rec))
			findings = nil
		}
	}()
	return rule.Evaluate(view)
}

// restrict builds the rule's view: entries carrying at least one of the
// rule's domains, plus every link touching those entries. Entries with
// an empty label set are never visible to any rule.
func restrict(rule Rule, entries []models.Entry, class models.Classification, links []models.CorrelationLink, opts models.AnalysisOptions) View {
	domains := rule.Domains()
	visible := make([]models.Entry, 0)
	visibleIDs := make(map[int]struct{})
	for _, entry := range entries {
		labels := class.LabelsOf(entry.ID)
		if len(labels) == 0 {
			continue
		}
		if !labels.HasAny(domains...) {
			continue
		}
		visible = append(visible, entry)
		visibleIDs[entry.ID] = struct{}{}
	}

	visibleLinks := make([]models.CorrelationLink, 0)
	for _, link := range links {
		if _, ok := visibleIDs[link.From]; ok {
			visibleLinks = append(visibleLinks, link)
			continue
		}
		if _, ok := visibleIDs[link.To]; ok {
			visibleLinks = append(visibleLinks, link)
		}
	}

	return NewView(visible, visibleLinks, class, opts)
}
