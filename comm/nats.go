package comm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"

	"github.com/chrinide/mbxas/internal/logging"
	"github.com/chrinide/mbxas/internal/metrics"
	"github.com/chrinide/mbxas/types"
)

// Options configures the NATS-backed communicator.
type Options struct {
	// Namespace prefixes every subject the communicator uses, isolating
	// independent computations sharing one NATS deployment. Defaults to
	// "mbxas".
	Namespace string

	// Size is the total number of member processes.
	Size int

	// Rank is the calling process's rank in [0, Size).
	Rank int

	// Logger receives debug/warn output. Defaults to a no-op logger.
	Logger types.Logger

	// Metrics receives per-collective instrumentation. Defaults to a no-op
	// collector.
	Metrics types.MetricsCollector
}

// NATS is the multi-process communicator backend.
//
// Members exchange frames over core NATS subjects. Each member subscribes to
// one subject derived from the communicator identity and its rank; every
// frame carries the source rank and a per-communicator collective sequence
// number, so a frame is consumed by exactly the collective call that expects
// it. Because all members issue collectives in identical program order, the
// sequence counters advance in lockstep without any extra coordination.
type NATS struct {
	nc        *nats.Conn
	namespace string
	id        uint64
	rank      int
	size      int

	// seq numbers collective operations on this communicator. Owned by the
	// single goroutine driving the communicator.
	seq uint32

	sub     *nats.Subscription
	pending *xsync.Map[uint64, chan []byte]

	logger  types.Logger
	metrics types.MetricsCollector
	closed  bool
}

var _ Comm = (*NATS)(nil)

// NewNATS creates the communicator spanning all processes of the
// computation.
//
// The caller owns the connection; closing the communicator does not close
// it. NewNATS subscribes the calling rank and flushes the connection so the
// subscription is active server-side before the function returns. Callers
// must still ensure every rank has constructed its communicator before the
// first collective (the root package does this with a roster barrier).
//
// Parameters:
//   - ctx: bounds the subscription flush
//   - nc: established NATS connection
//   - opts: world geometry and optional logger/metrics
//
// Returns:
//   - *NATS: communicator for the calling rank
//   - error: ErrConnRequired, ErrInvalidWorld or a transport error
func NewNATS(ctx context.Context, nc *nats.Conn, opts Options) (*NATS, error) {
	if nc == nil {
		return nil, ErrConnRequired
	}
	if opts.Size <= 0 || opts.Rank < 0 || opts.Rank >= opts.Size {
		return nil, fmt.Errorf("%w: size=%d rank=%d", ErrInvalidWorld, opts.Size, opts.Rank)
	}
	if opts.Namespace == "" {
		opts.Namespace = "mbxas"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}

	c := &NATS{
		nc:        nc,
		namespace: opts.Namespace,
		id:        xxh3.HashString(opts.Namespace),
		rank:      opts.Rank,
		size:      opts.Size,
		pending:   xsync.NewMap[uint64, chan []byte](),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}

	if err := c.subscribe(ctx); err != nil {
		return nil, err
	}

	c.metrics.SetWorldSize(opts.Size)
	c.logger.Debug("communicator ready", "namespace", c.namespace, "rank", c.rank, "size", c.size)

	return c, nil
}

// Size returns the number of member processes.
func (c *NATS) Size() int { return c.size }

// Rank returns the calling process's rank.
func (c *NATS) Rank() int { return c.rank }

func (c *NATS) subject(rank int) string {
	return fmt.Sprintf("%s.comm.%016x.%d", c.namespace, c.id, rank)
}

func (c *NATS) subscribe(ctx context.Context) error {
	sub, err := c.nc.Subscribe(c.subject(c.rank), c.onMessage)
	if err != nil {
		return fmt.Errorf("subscribe rank %d: %w", c.rank, err)
	}
	c.sub = sub
	if err := c.nc.FlushWithContext(ctx); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flush subscription: %w", err)
	}
	return nil
}

// onMessage routes an incoming frame to the collective call waiting for it.
// Either side of the rendezvous may arrive first, so both use LoadOrStore on
// the pending map keyed by (source, sequence).
func (c *NATS) onMessage(msg *nats.Msg) {
	src, seq, payload, ok := decodeFrame(msg.Data)
	if !ok {
		c.logger.Warn("dropping malformed frame", "subject", msg.Subject, "len", len(msg.Data))
		return
	}
	ch, _ := c.pending.LoadOrStore(slotKey(src, seq), make(chan []byte, 1))
	ch <- payload
}

func slotKey(src, seq uint32) uint64 {
	return uint64(src)<<32 | uint64(seq)
}

func (c *NATS) send(to int, seq uint32, payload []byte) error {
	return c.nc.Publish(c.subject(to), encodeFrame(uint32(c.rank), seq, payload))
}

func (c *NATS) recv(ctx context.Context, from int, seq uint32) ([]byte, error) {
	key := slotKey(uint32(from), seq)
	ch, _ := c.pending.LoadOrStore(key, make(chan []byte, 1))
	select {
	case payload := <-ch:
		c.pending.Delete(key)
		return payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("recv from rank %d (seq %d): %w", from, seq, ctx.Err())
	}
}

func (c *NATS) nextSeq() uint32 {
	c.seq++
	return c.seq
}

func (c *NATS) checkRoot(root int) error {
	if c.closed {
		return ErrClosed
	}
	if root < 0 || root >= c.size {
		return fmt.Errorf("%w: %d in size-%d communicator", ErrInvalidRoot, root, c.size)
	}
	return nil
}

// Gather collects every member's payload at the root, indexed by rank.
func (c *NATS) Gather(ctx context.Context, data []byte, root int) ([][]byte, error) {
	if err := c.checkRoot(root); err != nil {
		return nil, err
	}
	seq := c.nextSeq()
	start := time.Now()

	if c.rank != root {
		if err := c.send(root, seq, data); err != nil {
			return nil, fmt.Errorf("gather to rank %d: %w", root, err)
		}
		c.metrics.RecordCollective("gather", len(data), time.Since(start).Seconds())
		return nil, nil
	}

	out := make([][]byte, c.size)
	out[root] = bytes.Clone(data)
	for r := 0; r < c.size; r++ {
		if r == root {
			continue
		}
		payload, err := c.recv(ctx, r, seq)
		if err != nil {
			return nil, fmt.Errorf("gather at root: %w", err)
		}
		out[r] = payload
	}
	c.metrics.RecordCollective("gather", len(data), time.Since(start).Seconds())
	return out, nil
}

// Bcast distributes the root's payload to every member.
func (c *NATS) Bcast(ctx context.Context, data []byte, root int) ([]byte, error) {
	if err := c.checkRoot(root); err != nil {
		return nil, err
	}
	seq := c.nextSeq()
	start := time.Now()

	if c.rank == root {
		for r := 0; r < c.size; r++ {
			if r == root {
				continue
			}
			if err := c.send(r, seq, data); err != nil {
				return nil, fmt.Errorf("bcast to rank %d: %w", r, err)
			}
		}
		c.metrics.RecordCollective("bcast", len(data), time.Since(start).Seconds())
		return bytes.Clone(data), nil
	}

	payload, err := c.recv(ctx, root, seq)
	if err != nil {
		return nil, fmt.Errorf("bcast: %w", err)
	}
	c.metrics.RecordCollective("bcast", len(payload), time.Since(start).Seconds())
	return payload, nil
}

// Reduce combines all members' vectors element-wise with op at the root.
func (c *NATS) Reduce(ctx context.Context, data []float64, op Op, root int) ([]float64, error) {
	gathered, err := c.Gather(ctx, encodeFloats(data), root)
	if err != nil {
		return nil, fmt.Errorf("reduce(%s): %w", op, err)
	}
	if c.rank != root {
		return nil, nil
	}

	vecs := make([][]float64, c.size)
	for r, buf := range gathered {
		vec := decodeFloats(buf)
		if len(vec) != len(data) {
			return nil, fmt.Errorf("reduce(%s) from rank %d: %w: got %d, want %d",
				op, r, ErrShapeMismatch, len(vec), len(data))
		}
		vecs[r] = vec
	}
	return combine(op, vecs), nil
}

// AllReduce combines all members' vectors element-wise with op and
// replicates the result everywhere. The combination happens once, at rank 0,
// so the result is bit-identical on every member regardless of summation
// order concerns.
func (c *NATS) AllReduce(ctx context.Context, data []float64, op Op) ([]float64, error) {
	reduced, err := c.Reduce(ctx, data, op, 0)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if c.rank == 0 {
		payload = encodeFloats(reduced)
	}
	blob, err := c.Bcast(ctx, payload, 0)
	if err != nil {
		return nil, fmt.Errorf("allreduce(%s): %w", op, err)
	}
	out := decodeFloats(blob)
	if len(out) != len(data) {
		return nil, fmt.Errorf("allreduce(%s): %w: got %d, want %d", op, ErrShapeMismatch, len(out), len(data))
	}
	return out, nil
}

// Split partitions the communicator by color, re-ranking members of each
// color by ascending (key, parent rank).
//
// All members first exchange their (color, key) pairs through a gather to
// rank 0 followed by a broadcast, so every member learns the full membership
// deterministically. Members then subscribe their child subjects, and a
// final barrier on the parent guarantees every child subscription is active
// before any child collective can run.
func (c *NATS) Split(ctx context.Context, color, key int) (Comm, error) {
	if c.closed {
		return nil, ErrClosed
	}

	start := time.Now()

	gathered, err := c.Gather(ctx, encodeIntPair(color, key), 0)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	var flat []byte
	if c.rank == 0 {
		flat = make([]byte, 0, 16*c.size)
		for _, buf := range gathered {
			flat = append(flat, buf...)
		}
	}
	blob, err := c.Bcast(ctx, flat, 0)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if len(blob) != 16*c.size {
		return nil, fmt.Errorf("split: malformed membership exchange: %d bytes for %d ranks", len(blob), c.size)
	}

	type member struct{ rank, key int }
	var members []member
	for r := 0; r < c.size; r++ {
		mcolor, mkey := decodeIntPair(blob[16*r:])
		if mcolor == color && color != ColorUndefined {
			members = append(members, member{rank: r, key: mkey})
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].key != members[j].key {
			return members[i].key < members[j].key
		}
		return members[i].rank < members[j].rank
	})

	var child *NATS
	if color != ColorUndefined {
		childRank := -1
		for i, m := range members {
			if m.rank == c.rank {
				childRank = i
				break
			}
		}
		child = &NATS{
			nc:        c.nc,
			namespace: c.namespace,
			id:        deriveID(c.id, color, c.seq),
			rank:      childRank,
			size:      len(members),
			pending:   xsync.NewMap[uint64, chan []byte](),
			logger:    c.logger,
			metrics:   c.metrics,
		}
		if err := child.subscribe(ctx); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
	}

	// Barrier on the parent: no member proceeds until every member has its
	// child subscription flushed to the server.
	if _, err := c.Gather(ctx, nil, 0); err != nil {
		return nil, fmt.Errorf("split barrier: %w", err)
	}
	if _, err := c.Bcast(ctx, nil, 0); err != nil {
		return nil, fmt.Errorf("split barrier: %w", err)
	}

	c.metrics.RecordCollective("split", 16*c.size, time.Since(start).Seconds())
	if child == nil {
		return nil, nil
	}
	return child, nil
}

// Close unsubscribes the communicator's subject. The NATS connection stays
// open; it belongs to the caller.
func (c *NATS) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe: %w", err)
		}
	}
	return nil
}

// deriveID computes a child communicator identity from the parent identity,
// the split color and the parent's collective sequence at split time. The
// sequence counters advance in lockstep on every member, so members of one
// color derive the same identity without further communication, while
// repeated splits of the same parent yield distinct children.
func deriveID(parent uint64, color int, seq uint32) uint64 {
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[0:8], parent)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(color)))
	binary.LittleEndian.PutUint32(buf[16:20], seq)
	return xxh3.Hash(buf[:])
}
