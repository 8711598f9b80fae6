package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmitRunsTask(t *testing.T) {
	runner := NewRunner(Config{}, zap.NewNop())

	var ran atomic.Bool
	runner.Submit("test", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	runner.Wait()
	assert.True(t, ran.Load())
}

func TestSubmitDoesNotBlockCaller(t *testing.T) {
	runner := NewRunner(Config{MaxConcurrent: 1}, zap.NewNop())

	release := make(chan struct{})
	runner.Submit("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	// With the single slot occupied, another submission must still return
	// immediately.
	done := make(chan struct{})
	go func() {
		runner.Submit("queued", func(ctx context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked the caller")
	}

	close(release)
	runner.Wait()
}

func TestTaskFailureIsContained(t *testing.T) {
	runner := NewRunner(Config{}, zap.NewNop())

	runner.Submit("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})

	// Wait returning without a panic is the contract: failures are logged,
	// never propagated.
	runner.Wait()
}

func TestConcurrencyBound(t *testing.T) {
	runner := NewRunner(Config{MaxConcurrent: 2}, zap.NewNop())

	var mu sync.Mutex
	inFlight, peak := 0, 0

	for i := 0; i < 8; i++ {
		runner.Submit("bounded", func(ctx context.Context) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		})
	}

	runner.Wait()
	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, peak, 0)
}

func TestTaskGetsDetachedContext(t *testing.T) {
	runner := NewRunner(Config{TaskTimeout: time.Minute}, zap.NewNop())

	var taskErr error
	var done atomic.Bool
	runner.Submit("detached", func(ctx context.Context) error {
		// The submitting request's context is never passed in; the task's
		// context must be alive here.
		taskErr = ctx.Err()
		done.Store(true)
		return nil
	})

	runner.Wait()
	require.True(t, done.Load())
	assert.NoError(t, taskErr)
}

func TestTaskTimeout(t *testing.T) {
	runner := NewRunner(Config{TaskTimeout: 20 * time.Millisecond}, zap.NewNop())

	expired := make(chan error, 1)
	runner.Submit("expiring", func(ctx context.Context) error {
		<-ctx.Done()
		expired <- ctx.Err()
		return ctx.Err()
	})

	runner.Wait()
	select {
	case err := <-expired:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	default:
		t.Fatal("task context never expired")
	}
}
