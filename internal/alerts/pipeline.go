package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/campushub/campushub-core/internal/store"
)

// PipelineConfig tunes one session pipeline. Zero values take defaults.
type PipelineConfig struct {
	DeliverySpacing time.Duration
	DedupTTL        time.Duration
	SweepInterval   time.Duration
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.DeliverySpacing <= 0 {
		c.DeliverySpacing = DefaultDeliverySpacing
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = DefaultDedupTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}

// Pipeline bundles one session's orchestrator, dedup store and delivery
// queue, constructed at session start and torn down at session end — no
// ambient module-level state.
type Pipeline struct {
	orc    *Orchestrator
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartPipeline builds and starts a full alert pipeline for one identity:
// dedup sweeper, drain loop, then the orchestrator's
// catch-up-then-subscribe pass.
func StartPipeline(ctx context.Context, st store.Store, dir store.Directory, id Identity, sink Sink, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	dedup := NewDedupStore(cfg.DedupTTL)
	queue := NewQueue(sink, cfg.DeliverySpacing, logger)
	orc := NewOrchestrator(st, dir, id, dedup, queue, logger)

	p := &Pipeline{orc: orc, cancel: cancel}

	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		queue.Run(ctx)
	}()
	go func() {
		defer p.wg.Done()
		dedup.RunSweeper(ctx, cfg.SweepInterval)
	}()

	orc.Start(ctx)
	logger.Info("Alert pipeline started", "user", id.UserID, "role", id.Role)
	return p
}

// Rescan re-runs the catch-up scans for this session.
func (p *Pipeline) Rescan(ctx context.Context) {
	p.orc.Rescan(ctx)
}

// Stop unsubscribes every feed and stops the drain loop and sweeper.
func (p *Pipeline) Stop() {
	p.orc.Stop()
	p.cancel()
	p.wg.Wait()
}
