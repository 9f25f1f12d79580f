// Package comm provides the communicator abstraction used for all
// coordination between processes.
//
// A Comm exposes the capability set {size, rank, split, gather, broadcast,
// reduce, all-reduce} over a fixed group of processes. Two implementations
// exist: a multi-process backend over NATS and a trivial single-process
// backend used when no messaging runtime is available. Both behave
// identically from the caller's point of view, so code written against the
// interface runs unchanged in serial.
//
// Collective operations are the only synchronization points. Every member of
// a communicator must invoke the same sequence of collectives with matching
// shapes; a member that skips or reorders a collective stalls its peers
// indefinitely. No timeout is imposed by the library - callers bound waits
// through the context they pass in.
package comm
