package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunRepeatsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(20*time.Millisecond, time.Second, func(ctx context.Context) error {
		if runs.Add(1) == 2 {
			return errors.New("transient")
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 runs, got %d", runs.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestJobGetsBoundedContext(t *testing.T) {
	got := make(chan bool, 1)
	s := New(10*time.Millisecond, 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		select {
		case got <- ok:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	select {
	case ok := <-got:
		if !ok {
			t.Fatal("expected job context to carry a deadline")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestStartValidation(t *testing.T) {
	if err := New(time.Minute, 0, nil).Start(context.Background()); err == nil {
		t.Fatal("expected error without a job")
	}

	noop := func(context.Context) error { return nil }
	if err := New(0, 0, noop).Start(context.Background()); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
