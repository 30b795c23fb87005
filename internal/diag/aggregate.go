package diag

import (
	"sort"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

// Aggregate deduplicates findings by their deduplication key, keeping
// the first occurrence, then orders them for presentation: severity
// descending, then the earliest implicated entry's timestamp
// ascending. Callers needing a different presentation re-sort.
func Aggregate(findings []models.Finding, entries []models.Entry) []models.Finding {
	seen := make(map[string]struct{}, len(findings))
	kept := make([]models.Finding, 0, len(findings))
	for _, finding := range findings {
		key := finding.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, finding)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Severity.Rank() != kept[j].Severity.Rank() {
			return kept[i].Severity.Rank() > kept[j].Severity.Rank()
		}
		return earliestStart(kept[i], entries).Before(earliestStart(kept[j], entries))
	})
	return kept
}

func earliestStart(finding models.Finding, entries []models.Entry) (earliest time.Time) {
	for _, id := range finding.EntryIDs {
		if id < 0 || id >= len(entries) {
			continue
		}
		start := entries[id].Start
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	return earliest
}
