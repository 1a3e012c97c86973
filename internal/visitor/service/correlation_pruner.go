package service

import (
	"context"
	"log"
	"time"
)

// CorrelationPruner periodically deletes pending correlations that have
// sat unanswered longer than a configurable retention period.  It runs as
// a background goroutine and is safe to stop via its context or the Stop
// method.
//
// A retention of 0 disables pruning entirely, which keeps entries forever
// the way the original system did.
type CorrelationPruner struct {
	pending   *PendingTable
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewCorrelationPruner.
type PrunerConfig struct {
	// RetentionHours is how long an unanswered correlation may linger.
	// 0 means keep everything (pruner will not start).
	RetentionHours int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewCorrelationPruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewCorrelationPruner(t *PendingTable, cfg PrunerConfig, logger *log.Logger) *CorrelationPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &CorrelationPruner{
		pending:   t,
		retention: time.Duration(cfg.RetentionHours) * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop.  It runs an immediate sweep
// on startup, then repeats on the configured interval.  The loop exits
// when ctx is cancelled or Stop is called.
func (p *CorrelationPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("correlation pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("correlation pruner started (retention=%dh, interval=%dh)",
		int(p.retention.Hours()), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.  Safe to
// call when Start never ran or pruning is disabled.
func (p *CorrelationPruner) Stop() {
	if p.cancel == nil {
		// No loop was ever started; nothing to wait for.
		return
	}
	p.cancel()
	<-p.done
}

func (p *CorrelationPruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.prune()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune()
		}
	}
}

func (p *CorrelationPruner) prune() {
	cutoff := time.Now().UTC().Add(-p.retention)
	if deleted := p.pending.PruneOlderThan(cutoff); deleted > 0 {
		p.logger.Printf("correlation prune: dropped %d unanswered entries older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
