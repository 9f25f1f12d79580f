// Package strategy provides work-assignment policies that partition the
// spin x k-point tuple space across pools.
//
// Two policies are available:
//
//   - Striped: tuples are dealt round-robin by global offset. Ownership of a
//     given tuple depends on the total pool count only, and load differs by
//     at most one tuple per pool.
//   - Block: k-points are split into contiguous, nearly equal blocks and a
//     pool owns every spin channel of the k-points in its block (k-major,
//     spin-minor order). This keeps all spin channels of a k-point on one
//     pool, which matters when they share cached operands.
//
// The policies are not interchangeable: they order tuples differently, so a
// caller must pick one explicitly and stay with it for a given computation.
package strategy
