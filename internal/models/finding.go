package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Severity grades the impact of a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for presentation, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Finding is one diagnostic result emitted by a rule. Findings are
// immutable once emitted; the aggregator drops duplicates but never
// rewrites a retained finding.
type Finding struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	EntryIDs []int    `json:"entryIds"`
}

// DedupeKey identifies equivalent findings across rule runs: rule ID
// plus the implicated entries, order-independent.
func (f Finding) DedupeKey() string {
	ids := append([]int(nil), f.EntryIDs...)
	sort.Ints(ids)
	var b strings.Builder
	b.WriteString(f.RuleID)
	for _, id := range ids {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// Report is the output of one analysis run: ranked findings plus the
// normalization warnings collected alongside them.
type Report struct {
	ReportID    string    `json:"reportId"`
	CreatedAt   time.Time `json:"createdAt"`
	TraceDigest string    `json:"traceDigest"`
	EntryCount  int       `json:"entryCount"`
	Findings    []Finding `json:"findings"`
	Warnings    []Warning `json:"warnings"`
}

// ReportSummary is the listing projection of a stored report.
type ReportSummary struct {
	ReportID     string    `json:"reportId"`
	CreatedAt    time.Time `json:"createdAt"`
	EntryCount   int       `json:"entryCount"`
	FindingCount int       `json:"findingCount"`
	Criticals    int       `json:"criticals"`
}
