package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chrinide/mbxas/comm"
)

// Journal collects log lines on every member of a communicator and prints
// them at the root in rank order, so output from cooperating processes
// interleaves deterministically instead of racing to a shared terminal.
//
// Append is local and cheap; the communication happens in Flush, which is
// collective.
type Journal struct {
	c     comm.Comm
	label string
	lines []string
}

// NewJournal creates a journal over c. The label names the members in the
// flushed output, e.g. "proc" or "pool".
func NewJournal(c comm.Comm, label string) *Journal {
	return &Journal{c: c, label: label}
}

// Append records a formatted line in this member's journal.
func (j *Journal) Append(format string, args ...any) {
	j.lines = append(j.lines, fmt.Sprintf(format, args...))
}

// Len returns the number of lines recorded locally.
func (j *Journal) Len() int {
	return len(j.lines)
}

// Flush gathers every member's lines to rank 0, prints them there grouped by
// rank, and clears the local buffer on all members.
//
// Flush is collective: every member of the communicator must call it.
// Members with empty journals still participate and produce no output group.
//
// Parameters:
//   - ctx: bounds the gather
//   - w: destination writer, used only on rank 0
//
// Returns:
//   - error: collective or write failure
func (j *Journal) Flush(ctx context.Context, w io.Writer) error {
	payload := []byte(strings.Join(j.lines, "\n"))
	j.lines = j.lines[:0]

	gathered, err := j.c.Gather(ctx, payload, 0)
	if err != nil {
		return fmt.Errorf("journal flush: %w", err)
	}
	if j.c.Rank() != 0 {
		return nil
	}

	for rank, buf := range gathered {
		if len(buf) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %d:\n", j.label, rank); err != nil {
			return fmt.Errorf("journal flush: %w", err)
		}
		for _, line := range strings.Split(string(buf), "\n") {
			if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
				return fmt.Errorf("journal flush: %w", err)
			}
		}
	}
	return nil
}

// Printf writes directly to w on rank 0 of c and is a no-op elsewhere. It is
// the escape hatch for output that should not wait for a Flush.
func Printf(c comm.Comm, w io.Writer, format string, args ...any) {
	if c.Rank() != 0 {
		return
	}
	_, _ = fmt.Fprintf(w, format, args...)
}
