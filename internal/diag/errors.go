package diag

import "fmt"

// MalformedTraceError reports a trace that cannot be analysed at all:
// an empty capture, or one where no entry carries the required fields.
type MalformedTraceError struct {
	Reason string
}

func (e *MalformedTraceError) Error() string {
	return fmt.Sprintf("malformed trace: %s", e.Reason)
}

// TraceUnusableError reports that too many individual entries were
// skipped during normalization for the remainder to be trustworthy.
type TraceUnusableError struct {
	Skipped int
	Total   int
	MaxRate float64
}

func (e *TraceUnusableError) Error() string {
	return fmt.Sprintf("trace unusable: skipped %d of %d entries, exceeds max skip rate %.2f",
		e.Skipped, e.Total, e.MaxRate)
}
