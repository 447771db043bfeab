package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// blockingService blocks in Start until Stop is called and records the stop
// into the shared order slice.
type blockingService struct {
	name  string
	order *stopOrder
	done  chan struct{}
	once  sync.Once
}

type stopOrder struct {
	mu    sync.Mutex
	names []string
}

func (o *stopOrder) record(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = append(o.names, name)
}

func (o *stopOrder) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.names...)
}

func newBlockingService(name string, order *stopOrder) *blockingService {
	return &blockingService{name: name, order: order, done: make(chan struct{})}
}

func (s *blockingService) Start() error {
	<-s.done
	return nil
}

func (s *blockingService) Stop() {
	s.once.Do(func() {
		s.order.record(s.name)
		close(s.done)
	})
}

func TestRunStopsServicesInReverseOrder(t *testing.T) {
	order := &stopOrder{}
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.Add("first", newBlockingService("first", order))
	lc.Add("second", newBlockingService("second", order))
	lc.Add("third", newBlockingService("third", order))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- lc.Run(ctx)
	}()

	// Give the services a moment to start, then trigger shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.Equal(t, []string{"third", "second", "first"}, order.list())
}

func TestRunReturnsFirstServiceFailure(t *testing.T) {
	order := &stopOrder{}
	boom := errors.New("listener exploded")

	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.Add("steady", newBlockingService("steady", order))
	lc.Add("flaky", &FuncService{
		StartFn: func() error { return boom },
		StopFn:  func() {},
	})

	done := make(chan error, 1)
	go func() {
		done <- lc.Run(context.Background())
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "flaky")
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service failure")
	}

	// The healthy service was stopped as part of the shutdown.
	assert.Equal(t, []string{"steady"}, order.list())
}

func TestStopTimeoutSkipsHungService(t *testing.T) {
	order := &stopOrder{}

	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.stopTimeout = 50 * time.Millisecond

	hung := make(chan struct{})
	lc.Add("hung", &FuncService{
		StartFn: func() error { <-hung; return nil },
		StopFn:  func() { select {} }, // never returns
	})
	lc.Add("behind", newBlockingService("behind", order))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- lc.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown wedged behind the hung service")
	}

	// "behind" stops first (reverse order); the hung service is skipped
	// after the timeout instead of blocking the run forever.
	assert.Equal(t, []string{"behind"}, order.list())
	close(hung)
}

func TestFuncServiceDelegates(t *testing.T) {
	var started, stopped bool

	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() {
			stopped = true
		},
	}

	require.NoError(t, svc.Start())
	assert.True(t, started)

	svc.Stop()
	assert.True(t, stopped)
}
