package models

import "sort"

// Label tags an entry with the traffic domain it belongs to.
type Label string

const (
	LabelNATTraversal  Label = "nat-traversal"
	LabelSignaling     Label = "signaling"
	LabelAPI           Label = "api"
	LabelCORSPreflight Label = "cors-preflight"
)

// LabelSet is a non-exclusive set of domain labels.
type LabelSet map[Label]struct{}

// NewLabelSet builds a set from the given labels.
func NewLabelSet(labels ...Label) LabelSet {
	set := make(LabelSet, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the label.
func (s LabelSet) Has(label Label) bool {
	_, ok := s[label]
	return ok
}

// HasAny reports whether the set contains at least one of the labels.
func (s LabelSet) HasAny(labels ...Label) bool {
	for _, l := range labels {
		if s.Has(l) {
			return true
		}
	}
	return false
}

// Add inserts a label into the set.
func (s LabelSet) Add(label Label) {
	s[label] = struct{}{}
}

// Labels returns the set contents in deterministic order.
func (s LabelSet) Labels() []Label {
	out := make([]Label, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Classification maps entry IDs to their label sets. Entries absent
// from the map carry no labels and are excluded from rule evaluation.
type Classification map[int]LabelSet

// LabelsOf returns the label set for an entry, which may be nil.
func (c Classification) LabelsOf(id int) LabelSet {
	return c[id]
}
