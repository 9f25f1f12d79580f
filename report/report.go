// Package report renders human-readable diagnostics of a computation: pool
// membership tables, work-assignment tables, and ordered per-rank journals.
//
// All output helpers are safe to call on every rank; anything that prints
// does so only on the designated root, so call sites stay free of rank
// conditionals.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/chrinide/mbxas/topology"
	"github.com/chrinide/mbxas/types"
)

var bannerColor = color.New(color.FgCyan, color.Bold)

// Banner prints a highlighted section header.
func Banner(w io.Writer, title string) {
	_, _ = bannerColor.Fprintf(w, "==== %s ====\n", title)
}

// PoolTable renders the pool membership of a layout: one row per pool with
// its size and member ranks.
//
// The table is derived from the layout alone; every rank computes the same
// membership, so no communication is involved.
//
// Parameters:
//   - w: destination writer
//   - layout: the computed pool layout
//
// Returns:
//   - error: table rendering failure
func PoolTable(w io.Writer, layout topology.Layout) error {
	table := tablewriter.NewWriter(w)
	table.Header("Pool", "Size", "Ranks")

	for pool := 0; pool < layout.NumPools; pool++ {
		members := layout.Members(pool)
		if err := table.Append(
			strconv.Itoa(pool),
			strconv.Itoa(len(members)),
			formatRanks(members),
		); err != nil {
			return fmt.Errorf("pool table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("pool table: %w", err)
	}
	return nil
}

// TupleTable renders a work assignment: one row per pool with its tuple
// count and the assigned tuples.
//
// Parameters:
//   - w: destination writer
//   - assignment: per-pool tuple lists, as returned by an Assigner
//
// Returns:
//   - error: table rendering failure
func TupleTable(w io.Writer, assignment [][]types.Tuple) error {
	table := tablewriter.NewWriter(w)
	table.Header("Pool", "Tuples", "(Spin, K)")

	for pool, tuples := range assignment {
		if err := table.Append(
			strconv.Itoa(pool),
			strconv.Itoa(len(tuples)),
			formatTuples(tuples),
		); err != nil {
			return fmt.Errorf("tuple table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("tuple table: %w", err)
	}
	return nil
}

func formatRanks(ranks []int) string {
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, " ")
}

func formatTuples(tuples []types.Tuple) string {
	parts := make([]string, len(tuples))
	for i, t := range tuples {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
