package diag

import (
	"sort"
	"sync"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

// Correlator derives temporal links between entries. The forward scan
// is bounded by the configured slack, keeping the pass O(n log n) for
// the sort plus an amortized linear window scan, so traces with tens
// of thousands of entries stay tractable.
type Correlator struct {
	opts models.AnalysisOptions
}

// NewCorrelator constructs a Correlator with the supplied options.
func NewCorrelator(opts models.AnalysisOptions) *Correlator {
	return &Correlator{opts: opts}
}

// Correlate returns the derived links for the given entries. Entries
// are scanned in start order with ties broken by ID ascending; the
// same pair never carries two links of the same kind.
func (c *Correlator) Correlate(entries []models.Entry, class models.Classification) []models.CorrelationLink {
	if len(entries) < 2 {
		return nil
	}

	sorted := sortedByStart(entries)
	seen := make(map[linkKey]struct{})
	links := make([]models.CorrelationLink, 0)

	links = append(links, c.overlapLinks(sorted, class, seen)...)
	links = append(links, c.retryLinks(sorted, seen)...)

	sort.Slice(links, func(i, j int) bool {
		if links[i].From != links[j].From {
			return links[i].From < links[j].From
		}
		if links[i].To != links[j].To {
			return links[i].To < links[j].To
		}
		return links[i].Kind < links[j].Kind
	})
	return links
}

// CorrelateParallel partitions the time-sorted entries and derives
// overlap links per partition concurrently. Partitions overlap by at
// least the configured slack so boundary-spanning links are not
// missed; duplicates from the overlap zone are merged away. Retry
// links can span arbitrary gaps, so they are always derived globally.
func (c *Correlator) CorrelateParallel(entries []models.Entry, class models.Classification, partitionSize int) []models.CorrelationLink {
	if partitionSize <= 0 || len(entries) <= partitionSize {
		return c.Correlate(entries, class)
	}

	sorted := sortedByStart(entries)
	slack := c.opts.CorrelationSlack()

	type partition struct{ lo, hi int }
	parts := make([]partition, 0)
	for lo := 0; lo < len(sorted); lo += partitionSize {
		end := lo + partitionSize
		if end > len(sorted) {
			end = len(sorted)
		}
		// Extend past the cut so every scan window stays inside one
		// partition: cover the last base entry's start plus slack.
		horizon := sorted[end-1].Start.Add(slack)
		hi := end
		for hi < len(sorted) && !sorted[hi].Start.After(horizon) {
			hi++
		}
		parts = append(parts, partition{lo: lo, hi: hi})
	}

	results := make([][]models.CorrelationLink, len(parts))
	var wg sync.WaitGroup
	for i, part := range parts {
		wg.Add(1)
		go func(i int, part partition) {
			defer wg.Done()
			local := make(map[linkKey]struct{})
			results[i] = c.overlapLinks(sorted[part.lo:part.hi], class, local)
		}(i, part)
	}
	wg.Wait()

	seen := make(map[linkKey]struct{})
	links := make([]models.CorrelationLink, 0)
	for _, result := range results {
		for _, link := range result {
			key := linkKey{from: link.From, to: link.To, kind: link.Kind}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			links = append(links, link)
		}
	}
	links = append(links, c.retryLinks(sorted, seen)...)

	sort.Slice(links, func(i, j int) bool {
		if links[i].From != links[j].From {
			return links[i].From < links[j].From
		}
		if links[i].To != links[j].To {
			return links[i].To < links[j].To
		}
		return links[i].Kind < links[j].Kind
	})
	return links
}

type linkKey struct {
	from, to int
	kind     models.LinkKind
}

func sortedByStart(entries []models.Entry) []models.Entry {
	sorted := append([]models.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

func (c *Correlator) overlapLinks(sorted []models.Entry, class models.Classification, seen map[linkKey]struct{}) []models.CorrelationLink {
	slack := c.opts.CorrelationSlack()
	links := make([]models.CorrelationLink, 0)

	for i, a := range sorted {
		// The window is bounded start-to-start: entries whose starts lie
		// further apart than the slack are never linked, however long
		// the earlier one ran.
		horizon := a.Start.Add(slack)
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if b.Start.After(horizon) {
				break
			}
			if !complementaryDomains(class.LabelsOf(a.ID), class.LabelsOf(b.ID)) {
				continue
			}
			key := linkKey{from: a.ID, to: b.ID, kind: models.LinkOverlaps}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			links = append(links, models.CorrelationLink{
				From:       a.ID,
				To:         b.ID,
				Kind:       models.LinkOverlaps,
				Confidence: overlapConfidence(a, b, slack),
			})
		}
	}
	return links
}

// overlapConfidence decays linearly from 1.0 at zero gap to 0.0 at the
// slack boundary. Entries that truly overlap in time have no gap.
func overlapConfidence(a, b models.Entry, slack time.Duration) float64 {
	gap := b.Start.Sub(a.End())
	if gap <= 0 {
		return 1.0
	}
	if slack <= 0 {
		return 0.0
	}
	conf := 1.0 - float64(gap)/float64(slack)
	if conf < 0 {
		return 0.0
	}
	return conf
}

// complementaryDomains holds when one side is connectivity traffic
// (NAT traversal or signaling) and the other is application API traffic.
func complementaryDomains(a, b models.LabelSet) bool {
	aConn := a.HasAny(models.LabelNATTraversal, models.LabelSignaling)
	bConn := b.HasAny(models.LabelNATTraversal, models.LabelSignaling)
	aAPI := a.Has(models.LabelAPI)
	bAPI := b.Has(models.LabelAPI)
	return (aConn && bAPI) || (bConn && aAPI)
}

// retryLinks connects a failed exchange (no response or 5xx) to the
// next attempt against the same normalized URL and method that starts
// after the failure completes.
func (c *Correlator) retryLinks(sorted []models.Entry, seen map[linkKey]struct{}) []models.CorrelationLink {
	groups := make(map[string][]models.Entry)
	for _, entry := range sorted {
		if entry.Method == "" {
			continue
		}
		key := entry.Method + " " + entry.NormalizedURL()
		groups[key] = append(groups[key], entry)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	links := make([]models.CorrelationLink, 0)
	for _, k := range keys {
		group := groups[k]
		for i, earlier := range group {
			if !retryCandidate(earlier) {
				continue
			}
			for j := i + 1; j < len(group); j++ {
				later := group[j]
				if later.Start.Before(earlier.End()) {
					continue
				}
				key := linkKey{from: earlier.ID, to: later.ID, kind: models.LinkRetries}
				if _, dup := seen[key]; dup {
					break
				}
				seen[key] = struct{}{}
				links = append(links, models.CorrelationLink{
					From:       earlier.ID,
					To:         later.ID,
					Kind:       models.LinkRetries,
					Confidence: 1.0,
				})
				break
			}
		}
	}
	return links
}

func retryCandidate(entry models.Entry) bool {
	return entry.Status == 0 || (entry.Status >= 500 && entry.Status <= 599)
}
