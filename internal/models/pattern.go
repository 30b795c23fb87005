package models

import "time"

// RecurringFinding aggregates how often a rule fires across stored
// reports, used to surface session problems that keep coming back.
type RecurringFinding struct {
	RuleID      string    `json:"ruleId"`
	Severity    Severity  `json:"severity"`
	Occurrences int       `json:"occurrences"`
	Reports     int       `json:"reports"`
	Prevalence  float64   `json:"prevalence"`
	LastSeen    time.Time `json:"lastSeen"`
	SampleMsg   string    `json:"sampleMessage"`
}
