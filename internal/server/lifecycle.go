// Package server runs the backend's long-lived services: it starts them
// together, waits for the first failure or a termination signal, and stops
// them in reverse registration order.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long one service's Stop may run before the
// shutdown moves on without it.
const DefaultStopTimeout = 30 * time.Second

// Service is a long-running component. Start blocks until the service ends
// or fails; Stop asks it to end and must be safe to call while Start is
// still blocked.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts registered services together and shuts them down as a
// group when any one fails, the context is cancelled, or the process
// receives SIGINT or SIGTERM.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration

	mu       sync.Mutex
	services []registration
}

type registration struct {
	name string
	svc  Service
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: DefaultStopTimeout}
}

// Add registers a service. Registration order is start order; shutdown runs
// in reverse, so register dependencies before the services that use them.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, registration{name: name, svc: svc})
}

// Run starts every registered service and blocks until one fails, the
// context is cancelled, or a termination signal arrives. It then stops all
// services in reverse order and returns the failure that ended the run, if
// there was one.
//
// Postcondition: every service's Stop has been invoked when Run returns.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]registration(nil), l.services...)
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failures := make(chan error, len(services))
	for _, reg := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", reg.name))
			runStart := time.Now()
			if err := reg.svc.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", reg.name),
					zap.Duration("uptime", time.Since(runStart)),
					zap.Error(err),
				)
				failures <- fmt.Errorf("service %s: %w", reg.name, err)
				cancel()
			}
		}()
	}

	l.logger.Info("services running",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	var runErr error
	select {
	case sig := <-signals:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-failures:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.stopAll(services)

	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return runErr
}

// stopAll stops services newest first, bounding each Stop by the stop
// timeout so one hung service cannot wedge the whole shutdown.
func (l *Lifecycle) stopAll(services []registration) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		reg := services[i]
		stopStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", reg.name))

		done := make(chan struct{})
		go func() {
			reg.svc.Stop()
			close(done)
		}()
		select {
		case <-done:
			l.logger.Info("service stopped",
				zap.String("service", reg.name),
				zap.Duration("elapsed", time.Since(stopStart)),
			)
		case <-time.After(l.stopTimeout):
			l.logger.Warn("service stop timed out, continuing shutdown",
				zap.String("service", reg.name),
				zap.Duration("waited", l.stopTimeout),
			)
		}
	}
	l.logger.Info("all services stopped", zap.Duration("elapsed", time.Since(shutdownStart)))
}
