package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errReset  = errors.New("connection reset")
	errDenied = errors.New("access denied")
	fast      = Policy{Attempts: 3, Delay: time.Millisecond}
)

func TestTransient(t *testing.T) {
	assert.NoError(t, Transient(nil))

	err := Transient(errReset)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, errReset)
	assert.Equal(t, errReset.Error(), err.Error())
	assert.False(t, IsTransient(errDenied))
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		failUntil int // attempt from which fn succeeds; 0 never succeeds
		err       error
		wantCalls int
		wantErr   error
	}{
		{"first try", 1, nil, 1, nil},
		{"recovers", 2, Transient(errReset), 2, nil},
		{"permanent", 0, errDenied, 1, errDenied},
		{"exhausted", 0, Transient(errReset), 3, errReset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(ctx, fast, func() error {
				calls++
				if tt.failUntil > 0 && calls >= tt.failUntil {
					return nil
				}
				return tt.err
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func() error {
		calls++
		return Transient(errReset)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Policy{Attempts: 3, Delay: time.Hour}, func() error {
		return Transient(errReset)
	})
	assert.ErrorIs(t, err, context.Canceled)
}
