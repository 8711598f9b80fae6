package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flaggedError struct {
	retryable bool
}

func (e *flaggedError) Error() string     { return "flagged" }
func (e *flaggedError) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit retryable", &flaggedError{retryable: true}, true},
		{"explicit permanent", &flaggedError{retryable: false}, false},
		{"connection refused pattern", errors.New("dial tcp: connection refused"), true},
		{"timeout pattern", errors.New("context deadline exceeded (timeout)"), true},
		{"rate limit pattern", errors.New("429 too many requests"), true},
		{"plain error", errors.New("invalid schema"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestDoWithResult_PermanentErrorReturnsImmediately(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), LLMConfig(), func() (string, error) {
		calls++
		return "", &flaggedError{retryable: false}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
}

func TestDoWithResult_RetriesTransientOnce(t *testing.T) {
	cfg := &Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	calls := 0
	result, err := DoWithResult(context.Background(), cfg, func() (string, error) {
		calls++
		if calls == 1 {
			return "", &flaggedError{retryable: true}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestDoWithResult_ExhaustsRetries(t *testing.T) {
	cfg := &Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	calls := 0
	_, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, &flaggedError{retryable: true}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestDoWithResult_ContextCancelDuringWait(t *testing.T) {
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 1}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := DoWithResult(ctx, cfg, func() (int, error) {
		return 0, &flaggedError{retryable: true}
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
