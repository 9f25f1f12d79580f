package mbxas

import "github.com/chrinide/mbxas/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces via type aliases. The actual definitions live in the `types`
// subpackage so that internal packages can depend on them without importing
// the root package, which would create import cycles.
type (
	Tuple = types.Tuple
	Space = types.Space
)

// Re-export interfaces from the types subpackage for convenience.
type (
	Assigner         = types.Assigner
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)
