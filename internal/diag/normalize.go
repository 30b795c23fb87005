package diag

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tracelens/trace-diag/internal/models"
	"github.com/tracelens/trace-diag/internal/utils"
)

// Normalizer converts raw loader records into canonical entries. It is
// a pure transform: output order matches input order and IDs are a
// dense 0-based sequence over the surviving entries.
type Normalizer struct {
	opts models.AnalysisOptions
}

// NewNormalizer constructs a Normalizer with the supplied options.
func NewNormalizer(opts models.AnalysisOptions) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize validates and converts the raw entries. Individually
// malformed entries are skipped with a collected warning; the whole
// operation fails with TraceUnusableError once the skip rate exceeds
// the configured maximum, and with MalformedTraceError when nothing
// usable remains.
func (n *Normalizer) Normalize(raw []models.RawEntry) ([]models.Entry, []models.Warning, error) {
	if len(raw) == 0 {
		return nil, nil, &MalformedTraceError{Reason: "trace contains no entries"}
	}

	entries := make([]models.Entry, 0, len(raw))
	warnings := make([]models.Warning, 0)

	for i, r := range raw {
		entry, err := n.normalizeOne(r)
		if err != nil {
			warnings = append(warnings, models.Warning{Index: i, Reason: err.Error()})
			continue
		}
		entry.ID = len(entries)
		entries = append(entries, entry)
	}

	skipped := len(raw) - len(entries)
	if rate := float64(skipped) / float64(len(raw)); rate > n.opts.MaxSkipRate {
		return nil, warnings, &TraceUnusableError{Skipped: skipped, Total: len(raw), MaxRate: n.opts.MaxSkipRate}
	}
	if len(entries) == 0 {
		return nil, warnings, &MalformedTraceError{Reason: "no entry carries a usable timestamp and URL"}
	}

	return entries, warnings, nil
}

func (n *Normalizer) normalizeOne(r models.RawEntry) (models.Entry, error) {
	if r.Start.IsZero() {
		return models.Entry{}, fmt.Errorf("missing start timestamp")
	}
	if strings.TrimSpace(r.URL) == "" {
		return models.Entry{}, fmt.Errorf("missing URL")
	}
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return models.Entry{}, fmt.Errorf("unparsable URL %q: %v", r.URL, err)
	}
	if r.DurationMs < 0 {
		return models.Entry{}, fmt.Errorf("negative duration %.1f ms", r.DurationMs)
	}

	entry := models.Entry{
		Start:            r.Start,
		Duration:         utils.MillisToDuration(r.DurationMs),
		Method:           strings.ToUpper(strings.TrimSpace(r.Method)),
		URL:              parsed,
		RequestHeaders:   r.RequestHeaders,
		Status:           r.Status,
		ResponseHeaders:  r.ResponseHeaders,
		RequestBodySize:  clampBodySize(r.RequestBodySize),
		ResponseBodySize: clampBodySize(r.ResponseBodySize),
	}
	return entry, nil
}

func clampBodySize(size int64) int64 {
	if size < 0 {
		return models.BodySizeUnknown
	}
	return size
}
