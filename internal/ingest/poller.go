package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller runs the intake flow on a fixed interval.
type Poller struct {
	ingestor *Ingestor
	interval time.Duration
}

// NewPoller creates a poller that runs the ingestor at the given interval.
func NewPoller(ingestor *Ingestor, interval time.Duration) *Poller {
	return &Poller{ingestor: ingestor, interval: interval}
}

// Run starts the polling loop. It blocks until the context is cancelled.
// One failed cycle never stops the loop.
func (p *Poller) Run(ctx context.Context) {
	zap.L().Info("ingest: poller starting",
		zap.Duration("interval", p.interval),
	)

	// Initial cycle immediately.
	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("ingest: poller stopping")
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	if err := p.ingestor.RunOnce(ctx); err != nil {
		zap.L().Error("ingest: cycle failed", zap.Error(err))
	}
}
