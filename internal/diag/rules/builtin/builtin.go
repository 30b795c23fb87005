// Package builtin holds the stock diagnostic rules, one per file.
package builtin

import (
	"github.com/tracelens/trace-diag/internal/diag/rules"
)

// Defaults returns the stock rules in their canonical registration
// order. Registration order breaks deduplication ties, so keep it
// stable across releases.
func Defaults() []rules.Rule {
	return []rules.Rule{
		NewNoNATTraversalRule(),
		NewHighLatencyRule(),
		NewEmptyBodyRule(),
		NewUnauthenticated401Rule(),
		NewExpiredSignedURLRule(),
	}
}
