package logging

import (
	"fmt"
	"testing"

	"github.com/chrinide/mbxas/types"
)

// TestLogger implements types.Logger using testing.T for output, so log
// messages appear interleaved with test output.
type TestLogger struct {
	t *testing.T
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a new test logger that writes to testing.T.
func NewTest(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) log(level, msg string, keysAndValues ...any) {
	l.t.Helper()
	line := level + " " + msg
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.t.Log(line)
}

// Debug logs at debug level to the test output.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.log("DEBUG", msg, keysAndValues...)
}

// Info logs at info level to the test output.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.log("INFO", msg, keysAndValues...)
}

// Warn logs at warn level to the test output.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.log("WARN", msg, keysAndValues...)
}

// Error logs at error level to the test output.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.log("ERROR", msg, keysAndValues...)
}

// Fatal fails the test immediately rather than exiting the process.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.log("FATAL", msg, keysAndValues...)
	l.t.FailNow()
}
