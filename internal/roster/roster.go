// Package roster tracks which ranks of the world have attached, backed by a
// NATS JetStream KeyValue bucket.
//
// It serves two purposes at startup: claiming a free rank atomically when the
// launcher supplies none, and the readiness barrier that keeps any process
// from issuing its first collective before every rank's communicator is
// subscribed.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/chrinide/mbxas/internal/kvutil"
	"github.com/chrinide/mbxas/internal/logging"
	"github.com/chrinide/mbxas/types"
)

// Common errors returned by the roster.
var (
	// ErrNoFreeRank is returned when every rank entry is already claimed.
	ErrNoFreeRank = errors.New("no free rank in roster")

	// ErrRankTaken is returned when announcing a rank another process holds.
	ErrRankTaken = errors.New("rank already claimed by another process")

	// ErrNotAttached is returned by Close when no rank was ever claimed.
	ErrNotAttached = errors.New("no rank attached to roster")
)

const refreshDivisor = 3

// Roster is one process's handle on the shared rank roster.
type Roster struct {
	kv     jetstream.KeyValue
	size   int
	ttl    time.Duration
	logger types.Logger

	rank   int
	ready  atomic.Bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open creates or opens the roster bucket and returns a handle for one
// process.
//
// The bucket carries a TTL so entries of crashed processes eventually expire
// and reruns of the computation can reclaim their ranks.
//
// Parameters:
//   - ctx: bounds bucket creation
//   - js: JetStream context
//   - bucket: KV bucket name
//   - size: world size, the number of rank entries expected
//   - ttl: lease duration for rank entries
//   - logger: logger for debug output (nil for none)
//
// Returns:
//   - *Roster: handle with no rank claimed yet
//   - error: bucket creation/open failure
func Open(ctx context.Context, js jetstream.JetStream, bucket string, size int, ttl time.Duration, logger types.Logger) (*Roster, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	kv, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}

	return &Roster{
		kv:     kv,
		size:   size,
		ttl:    ttl,
		logger: logger,
		rank:   -1,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

func rankKey(rank int) string {
	return fmt.Sprintf("rank.%d", rank)
}

func readyKey(rank int) string {
	return fmt.Sprintf("ready.%d", rank)
}

// Claim atomically claims the lowest free rank in [0, size).
//
// Uses the KV Create operation, which fails if the key exists, so two
// processes can never claim the same rank. A renewal goroutine keeps the
// lease alive until Close.
//
// Returns:
//   - int: the claimed rank
//   - error: ErrNoFreeRank when the roster is full, or a KV error
func (r *Roster) Claim(ctx context.Context) (int, error) {
	for rank := 0; rank < r.size; rank++ {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		default:
		}

		_, err := r.kv.Create(ctx, rankKey(rank), []byte(time.Now().Format(time.RFC3339)))
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyExists) {
				continue
			}
			return -1, fmt.Errorf("claim rank %d: %w", rank, err)
		}

		r.rank = rank
		r.logger.Debug("rank claimed", "rank", rank, "ttl", r.ttl)
		go r.renew()
		return rank, nil
	}

	return -1, ErrNoFreeRank
}

// Announce claims a specific rank supplied by the launcher.
//
// Returns ErrRankTaken if another live process already holds the entry.
func (r *Roster) Announce(ctx context.Context, rank int) error {
	_, err := r.kv.Create(ctx, rankKey(rank), []byte(time.Now().Format(time.RFC3339)))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("announce rank %d: %w", rank, ErrRankTaken)
		}
		return fmt.Errorf("announce rank %d: %w", rank, err)
	}

	r.rank = rank
	r.logger.Debug("rank announced", "rank", rank, "ttl", r.ttl)
	go r.renew()
	return nil
}

// Rank returns the claimed rank, or -1 before Claim/Announce succeed.
func (r *Roster) Rank() int {
	return r.rank
}

// renew refreshes the rank entry at a fraction of the TTL so the lease stays
// alive for the process's lifetime.
func (r *Roster) renew() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.ttl / refreshDivisor)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.ttl/refreshDivisor)
			_, err := r.kv.Put(ctx, rankKey(r.rank), []byte(time.Now().Format(time.RFC3339)))
			if err == nil && r.ready.Load() {
				_, err = r.kv.Put(ctx, readyKey(r.rank), []byte("ready"))
			}
			cancel()
			if err != nil {
				r.logger.Warn("rank lease refresh failed", "rank", r.rank, "error", err)
			}
		}
	}
}

// MarkReady publishes that the calling rank's communicator is fully
// subscribed and may receive collective traffic.
//
// Readiness is a separate key from the rank claim: a rank becomes visible in
// the roster the moment it claims, but peers must not send to it until its
// subscription is active.
func (r *Roster) MarkReady(ctx context.Context) error {
	if r.rank < 0 {
		return ErrNotAttached
	}
	if _, err := r.kv.Put(ctx, readyKey(r.rank), []byte("ready")); err != nil {
		return fmt.Errorf("mark ready rank %d: %w", r.rank, err)
	}
	r.ready.Store(true)
	return nil
}

// WaitAll blocks until every rank of the world has marked itself ready.
//
// This is the startup barrier: once it returns, every rank's communicator
// subscription is active, so collectives cannot lose frames to late joiners.
// The wait is bounded only by ctx.
func (r *Roster) WaitAll(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		keys, err := r.kv.Keys(ctx)
		if err != nil && !errors.Is(err, jetstream.ErrNoKeysFound) {
			return fmt.Errorf("roster wait: %w", err)
		}

		present := 0
		for _, k := range keys {
			if strings.HasPrefix(k, "ready.") {
				present++
			}
		}
		if present >= r.size {
			r.logger.Debug("roster complete", "size", r.size)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("roster wait (%d/%d ready): %w", present, r.size, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close stops the lease renewal and releases the rank entry.
func (r *Roster) Close(ctx context.Context) error {
	if r.rank < 0 {
		return ErrNotAttached
	}

	close(r.stopCh)
	<-r.doneCh

	if r.ready.Load() {
		if err := r.kv.Delete(ctx, readyKey(r.rank)); err != nil {
			r.logger.Warn("release ready entry failed", "rank", r.rank, "error", err)
		}
	}
	if err := r.kv.Delete(ctx, rankKey(r.rank)); err != nil {
		return fmt.Errorf("release rank %d: %w", r.rank, err)
	}
	return nil
}
