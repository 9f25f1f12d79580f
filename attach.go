package mbxas

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/chrinide/mbxas/comm"
	"github.com/chrinide/mbxas/internal/natsutil"
	"github.com/chrinide/mbxas/internal/roster"
)

// World is an attached computation member: the world communicator plus the
// runtime resources backing it.
//
// Close releases the rank roster entry, the communicator and the NATS
// connection, in that order. A serial World holds no external resources and
// Close is a no-op beyond closing the communicator.
type World struct {
	comm   comm.Comm
	nc     *nats.Conn
	roster *roster.Roster
	rank   int
	serial bool
}

// Attach joins the computation described by cfg and returns the world
// communicator for this process.
//
// When cfg.NATS.URL is empty, or the messaging runtime is unreachable within
// the connect timeout, Attach degrades to a single-process serial world
// instead of failing: collectives become local no-ops and the computation
// proceeds with WorldSize 1. This keeps one code path working from laptop
// runs to full multi-process deployments.
//
// In the multi-process path Attach claims a rank (the configured one, or the
// lowest free one when cfg.Rank is -1), builds the world communicator, and
// blocks until every rank of the world has attached and subscribed, so the
// first collective cannot lose frames to late joiners. The whole sequence is
// bounded by cfg.AttachTimeout.
//
// Parameters:
//   - ctx: cancellation for the attach sequence
//   - cfg: computation configuration (defaults are applied in place of zero
//     fields)
//   - opts: optional logger and metrics collector
//
// Returns:
//   - *World: the attached world
//   - error: validation failure, rank claim conflict, or attach timeout
//
// Example:
//
//	cfg, err := mbxas.LoadConfig("mbxas.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	world, err := mbxas.Attach(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer world.Close()
func Attach(ctx context.Context, cfg Config, opts ...Option) (*World, error) {
	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)

	if cfg.NATS.URL == "" {
		o.logger.Debug("no messaging runtime configured, running serial")
		return newSerialWorld(o), nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.AttachTimeout)
	defer cancel()

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Timeout(cfg.NATS.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.Name(fmt.Sprintf("%s-rank", cfg.NATS.Namespace)),
	)
	if err != nil {
		if natsutil.IsConnectivityError(err) {
			o.logger.Warn("messaging runtime unreachable, falling back to serial",
				"url", cfg.NATS.URL, "error", err)
			return newSerialWorld(o), nil
		}
		return nil, fmt.Errorf("connect %s: %w", cfg.NATS.URL, err)
	}

	world, err := attachWorld(ctx, nc, cfg, o)
	if err != nil {
		nc.Close()
		if natsutil.IsConnectivityError(err) {
			o.logger.Warn("attach failed on connectivity, falling back to serial", "error", err)
			return newSerialWorld(o), nil
		}
		return nil, err
	}
	return world, nil
}

func newSerialWorld(o *options) *World {
	o.metrics.RecordSerialFallback()
	o.metrics.SetWorldSize(1)
	return &World{comm: comm.NewSerial(), rank: 0, serial: true}
}

func attachWorld(ctx context.Context, nc *nats.Conn, cfg Config, o *options) (*World, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	ros, err := roster.Open(ctx, js, cfg.NATS.RosterBucket, cfg.WorldSize, cfg.NATS.RankTTL, o.logger)
	if err != nil {
		return nil, err
	}

	rank := cfg.Rank
	if rank < 0 {
		rank, err = ros.Claim(ctx)
	} else {
		err = ros.Announce(ctx, rank)
	}
	if err != nil {
		return nil, err
	}

	c, err := comm.NewNATS(ctx, nc, comm.Options{
		Namespace: cfg.NATS.Namespace,
		Size:      cfg.WorldSize,
		Rank:      rank,
		Logger:    o.logger,
		Metrics:   o.metrics,
	})
	if err != nil {
		releaseRoster(ros, o)
		return nil, err
	}

	// The communicator is subscribed and flushed at this point, so the
	// rank may advertise readiness and wait out the rest of the world.
	if err := ros.MarkReady(ctx); err != nil {
		c.Close()
		releaseRoster(ros, o)
		return nil, err
	}
	if err := ros.WaitAll(ctx); err != nil {
		c.Close()
		releaseRoster(ros, o)
		return nil, err
	}

	o.metrics.SetWorldSize(cfg.WorldSize)
	o.logger.Info("attached", "rank", rank, "worldSize", cfg.WorldSize, "url", cfg.NATS.URL)

	return &World{comm: c, nc: nc, roster: ros, rank: rank}, nil
}

func releaseRoster(ros *roster.Roster, o *options) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ros.Close(ctx); err != nil {
		o.logger.Warn("roster release failed", "error", err)
	}
}

// Comm returns the world communicator.
func (w *World) Comm() comm.Comm { return w.comm }

// Rank returns this process's world rank.
func (w *World) Rank() int { return w.rank }

// Size returns the world size.
func (w *World) Size() int { return w.comm.Size() }

// Serial reports whether the world degraded to the single-process backend.
func (w *World) Serial() bool { return w.serial }

// Close detaches from the computation: it releases the rank roster entry,
// closes the world communicator and drains the NATS connection.
func (w *World) Close() error {
	var firstErr error

	if err := w.comm.Close(); err != nil {
		firstErr = err
	}
	if w.roster != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.roster.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		cancel()
	}
	if w.nc != nil {
		w.nc.Close()
	}
	return firstErr
}
