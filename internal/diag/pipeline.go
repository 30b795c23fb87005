// Package diag implements the diagnostic engine: normalization,
// classification, temporal correlation, rule evaluation, and finding
// aggregation over one captured session trace.
package diag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tracelens/trace-diag/internal/diag/rules"
	"github.com/tracelens/trace-diag/internal/diag/rules/builtin"
	"github.com/tracelens/trace-diag/internal/models"
)

// Pipeline runs one analysis: raw entries in, ranked findings plus
// normalization warnings out. It holds no mutable state across runs;
// every run builds a fresh snapshot.
type Pipeline struct {
	logger     *slog.Logger
	opts       models.AnalysisOptions
	normalizer *Normalizer
	classifier *Classifier
	correlator *Correlator
	registry   *rules.Registry
}

// NewPipeline validates the options, registers the built-in rules plus
// any extras, and returns a ready pipeline. Configuration errors
// surface here, before any entry is processed.
func NewPipeline(logger *slog.Logger, opts models.AnalysisOptions, extra ...rules.Rule) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}

	ruleSet := append(builtin.Defaults(), extra...)
	return &Pipeline{
		logger:     logger,
		opts:       opts,
		normalizer: NewNormalizer(opts),
		classifier: NewClassifier(opts),
		correlator: NewCorrelator(opts),
		registry:   rules.NewRegistry(logger, ruleSet...),
	}, nil
}

// Analyze runs the staged pipeline: normalize, classify structurally,
// correlate, apply timeline-dependent labels, evaluate rules,
// aggregate. Cancellation is honoured at stage boundaries; a cancelled
// run reports no partial results.
func (p *Pipeline) Analyze(ctx context.Context, raw []models.RawEntry) (models.Report, error) {
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	entries, warnings, err := p.normalizer.Normalize(raw)
	if err != nil {
		return models.Report{}, err
	}
	if len(warnings) > 0 {
		p.logger.Debug("normalization skipped entries", slog.Int("skipped", len(warnings)))
	}
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	class := p.classifier.Structural(entries)
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	parallel := p.opts.ParallelThreshold > 0 && len(entries) > p.opts.ParallelThreshold
	var links []models.CorrelationLink
	if parallel {
		links = p.correlator.CorrelateParallel(entries, class, p.opts.ParallelThreshold)
	} else {
		links = p.correlator.Correlate(entries, class)
	}
	p.classifier.ApplyTimeline(entries, class)
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	var findings []models.Finding
	if parallel {
		findings = p.registry.EvaluateParallel(entries, class, links, p.opts)
	} else {
		findings = p.registry.Evaluate(entries, class, links, p.opts)
	}
	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	report := models.Report{
		EntryCount: len(entries),
		Findings:   Aggregate(findings, entries),
		Warnings:   warnings,
	}
	return report, nil
}
