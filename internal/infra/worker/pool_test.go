//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(nil)
	return &l
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := NewPool(2, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	var ran int64
	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			done <- struct{}{}
			return nil
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("task %d did not run", i)
		}
	}
	if got := atomic.LoadInt64(&ran); got != 5 {
		t.Fatalf("ran = %d, want 5", got)
	}
}

func TestPoolSubmitErrors(t *testing.T) {
	// not started, so the queue fills up: 1 worker gives 4 slots
	p := NewPool(1, newTestLogger())

	if err := p.Submit(nil); err == nil {
		t.Fatalf("nil task must be rejected")
	}
	noop := func(ctx context.Context) error { return nil }
	for i := 0; i < 4; i++ {
		if err := p.Submit(noop); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if err := p.Submit(noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}
