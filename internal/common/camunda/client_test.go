package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quote-intake/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	result, err := executeWithRetry(context.Background(), fastRetry, func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("rpc error: code = Unavailable desc = connection refused")
		}
		return int64(99), nil
	}, "start-process")

	require.NoError(t, err)
	assert.Equal(t, int64(99), result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentErrors(t *testing.T) {
	calls := 0
	_, err := executeWithRetry(context.Background(), fastRetry, func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, fmt.Errorf("process definition with id 'x' not found")
	}, "start-process")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestExecuteWithRetry_MapsExhaustedTimeouts(t *testing.T) {
	_, err := executeWithRetry(context.Background(), fastRetry, func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("context deadline exceeded")
	}, "start-process")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: time.Second}
	_, err := executeWithRetry(ctx, slow, func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("connection reset")
	}, "start-process")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(fmt.Errorf("Unavailable")))
	assert.True(t, isRetryableZeebeError(fmt.Errorf("broken pipe")))
	assert.False(t, isRetryableZeebeError(fmt.Errorf("invalid argument")))
}
