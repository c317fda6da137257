package quell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sharnoff/quell"
)

func TestCancelOnTriggerCompletes(t *testing.T) {
	t.Parallel()

	m := quell.NewManager[string]()

	// an immediately-ready computation
	value, err := quell.CancelOnTrigger(context.Background(), m, func(context.Context) (int, error) {
		return 10, nil
	})
	assert(err == nil)
	assert(value == 10)

	// one that takes a little while
	value, err = quell.CancelOnTrigger(context.Background(), m, func(context.Context) (int, error) {
		time.Sleep(jiffy)
		return 10, nil
	})
	assert(err == nil)
	assert(value == 10)
}

func TestCancelOnTriggerCancels(t *testing.T) {
	t.Parallel()

	m := quell.NewManager[string]()
	fExited := make(chan struct{})

	done := make(chan struct{})
	var err error
	go func() {
		_, err = quell.CancelOnTrigger(context.Background(), m, func(ctx context.Context) (int, error) {
			// never completes on its own; only exits when abandoned
			<-ctx.Done()
			close(fExited)
			return 0, ctx.Err()
		})
		close(done)
	}()

	time.Sleep(jiffy)
	assert(!isClosed(done))

	assert(m.Trigger("x") == nil)
	time.Sleep(jiffy)
	assert(isClosed(done))

	var shutdown *quell.ShutdownError[string]
	if !errors.As(err, &shutdown) {
		t.Fatalf("expected ShutdownError, got %v", err)
	}
	assert(shutdown.Reason == "x")

	// the abandoned computation saw its context canceled
	time.Sleep(jiffy)
	assert(isClosed(fExited))

	// the resolved outcome is final; re-triggering changes nothing
	_ = m.Trigger("y")
	assert(shutdown.Reason == "x")
}

func TestCancelOnTriggerAlreadyTriggered(t *testing.T) {
	t.Parallel()

	m := quell.NewManager[int]()
	assert(m.Trigger(3) == nil)

	started := make(chan struct{})
	_, err := quell.CancelOnTrigger(context.Background(), m, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	var shutdown *quell.ShutdownError[int]
	if !errors.As(err, &shutdown) {
		t.Fatalf("expected ShutdownError, got %v", err)
	}
	assert(shutdown.Reason == 3)

	// the computation is still started; give it a moment to observe the
	// cancellation so the goroutine doesn't outlive the test
	select {
	case <-started:
	case <-time.After(100 * jiffy):
		t.Fatal("computation never started")
	}
}

func TestCancelOnTriggerContextError(t *testing.T) {
	t.Parallel()

	m := quell.NewManager[string]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var err error
	go func() {
		_, err = quell.CancelOnTrigger(ctx, m, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		close(done)
	}()

	time.Sleep(jiffy)
	cancel()
	time.Sleep(jiffy)
	assert(isClosed(done))
	assert(err == context.Canceled)
}

func TestDelayForRunsAndReleases(t *testing.T) {
	t.Parallel()

	m := quell.NewManager[string]()

	value, err := quell.DelayFor(context.Background(), m, func(context.Context) (string, error) {
		assert(m.DelayCount() == 1)
		return "ok", nil
	})
	assert(err == nil)
	assert(value == "ok")
	assert(m.DelayCount() == 0)

	// errors from the computation pass through untouched
	boom := errors.New("boom")
	_, err = quell.DelayFor(context.Background(), m, func(context.Context) (string, error) {
		return "", boom
	})
	assert(err == boom)
	assert(m.DelayCount() == 0)
}
