package encounter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the Sweeper runs when not configured.
const DefaultSweepInterval = time.Minute

// Sweeper periodically closes expired sessions through
// Manager.SweepExpired. It implements the server lifecycle's Service
// contract: Start blocks until Stop is called.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewSweeper returns a Sweeper running one pass per interval. A
// non-positive interval takes DefaultSweepInterval.
//
// Precondition: manager is non-nil.
func NewSweeper(manager *Manager, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs sweep passes on the configured interval until Stop is called.
//
// Postcondition: returns nil after Stop.
func (sw *Sweeper) Start() error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("session sweeper started", zap.Duration("interval", sw.interval))
	for {
		select {
		case <-sw.done:
			sw.logger.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			sw.sweep()
		}
	}
}

// Stop ends the sweep loop. Safe to call more than once.
func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() {
		close(sw.done)
	})
}

// sweep runs one pass. Each pass gets the interval as its deadline so a
// slow pass cannot pile up behind the next tick.
func (sw *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sw.interval)
	defer cancel()

	if _, err := sw.manager.SweepExpired(ctx); err != nil {
		sw.logger.Error("session sweep failed", zap.Error(err))
	}
}
