package testing

import (
	"testing"

	"github.com/chrinide/mbxas/internal/logging"
	"github.com/chrinide/mbxas/types"
)

// NewTestLogger creates a logger instance that writes to the testing.T
// logger, so library output appears interleaved with test output.
func NewTestLogger(t *testing.T) types.Logger {
	return logging.NewTest(t)
}
