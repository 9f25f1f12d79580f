package comm

import "context"

// Op selects the combining function of a reduction.
type Op int

const (
	// OpSum combines element-wise by addition.
	OpSum Op = iota

	// OpMax combines element-wise by maximum.
	OpMax
)

// String returns the operation name used in logs and metrics.
func (o Op) String() string {
	switch o {
	case OpSum:
		return "sum"
	case OpMax:
		return "max"
	default:
		return "op(?)"
	}
}

// ColorUndefined, passed as the color to Split, makes the calling process
// participate in the split without joining any child communicator.
const ColorUndefined = -1

// Comm is a group of processes that communicate through collective
// operations.
//
// A Comm is owned by a single goroutine; concurrent collectives on the same
// Comm are not supported. Distinct communicators are independent and may be
// used concurrently with each other.
type Comm interface {
	// Size returns the number of member processes.
	Size() int

	// Rank returns the calling process's rank, in [0, Size()).
	Rank() int

	// Split partitions the communicator into disjoint child communicators,
	// one per distinct color. Members with the same color form a child in
	// which they are re-ranked by ascending (key, parent rank). A member
	// passing ColorUndefined joins no child and receives a nil Comm.
	//
	// Split is itself collective: every member must call it.
	Split(ctx context.Context, color, key int) (Comm, error)

	// Gather collects every member's payload at the root rank. On the root
	// the result holds one entry per member, indexed by rank; on every
	// other member the result is nil.
	Gather(ctx context.Context, data []byte, root int) ([][]byte, error)

	// Bcast distributes the root's payload to every member and returns it.
	// The data argument of non-root members is ignored.
	Bcast(ctx context.Context, data []byte, root int) ([]byte, error)

	// Reduce combines all members' vectors element-wise with op at the
	// root. The vectors must have identical length on every member. On the
	// root the result is the combined vector; elsewhere it is nil.
	Reduce(ctx context.Context, data []float64, op Op, root int) ([]float64, error)

	// AllReduce combines all members' vectors element-wise with op and
	// replicates the result on every member.
	AllReduce(ctx context.Context, data []float64, op Op) ([]float64, error)

	// Close releases the communicator's transport resources. Closing a
	// communicator does not affect its parent or children.
	Close() error
}

// combine applies op element-wise over the gathered vectors, in rank order.
func combine(op Op, vecs [][]float64) []float64 {
	out := make([]float64, len(vecs[0]))
	copy(out, vecs[0])
	for _, v := range vecs[1:] {
		for i, x := range v {
			switch op {
			case OpMax:
				if x > out[i] {
					out[i] = x
				}
			default:
				out[i] += x
			}
		}
	}
	return out
}
