package models

// LinkKind names the relation a correlation link expresses.
type LinkKind string

const (
	LinkPrecedes LinkKind = "precedes"
	LinkOverlaps LinkKind = "overlaps"
	LinkRetries  LinkKind = "retries"
)

// CorrelationLink is a directed, derived relation between two entries.
// The same (From, To) pair carries at most one link of a given kind.
type CorrelationLink struct {
	From       int      `json:"from"`
	To         int      `json:"to"`
	Kind       LinkKind `json:"kind"`
	Confidence float64  `json:"confidence"`
}

// Touches reports whether the link references the given entry.
func (l CorrelationLink) Touches(id int) bool {
	return l.From == id || l.To == id
}
