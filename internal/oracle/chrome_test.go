package oracle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFromCell(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		present bool
		want    LookupResult
	}{
		{"missing element", "", false, NotFound("中山路5號")},
		{"blank cell", "  \n\t", true, NotFound("中山路5號")},
		{"matched", " 桃園市中壢區中山路5號 ", true, Matched("中山路5號", "桃園市中壢區中山路5號")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultFromCell("中山路5號", tt.text, tt.present))
		})
	}
}

func TestClassifyStepError(t *testing.T) {
	cdpErr := errors.New("could not find node")

	tests := []struct {
		name       string
		sessionErr error
		callerErr  error
		err        error
		is         error
		isNot      []error
	}{
		{
			name:  "no error",
			err:   nil,
			is:    nil,
			isNot: []error{ErrTimeout, ErrUnavailable},
		},
		{
			name:       "browser closed",
			sessionErr: context.Canceled,
			err:        context.Canceled,
			is:         ErrUnavailable,
			isNot:      []error{ErrTimeout},
		},
		{
			name:       "browser closed wins over caller cancel",
			sessionErr: context.Canceled,
			callerErr:  context.Canceled,
			err:        context.Canceled,
			is:         ErrUnavailable,
		},
		{
			name:      "caller cancel passes through",
			callerErr: context.Canceled,
			err:       context.Canceled,
			is:        context.Canceled,
			isNot:     []error{ErrTimeout, ErrUnavailable},
		},
		{
			name:      "caller deadline passes through",
			callerErr: context.DeadlineExceeded,
			err:       context.Canceled,
			is:        context.DeadlineExceeded,
			isNot:     []error{ErrTimeout, ErrUnavailable},
		},
		{
			name:  "step deadline",
			err:   context.DeadlineExceeded,
			is:    ErrTimeout,
			isNot: []error{ErrUnavailable},
		},
		{
			name:  "other failure keeps cause",
			err:   cdpErr,
			is:    cdpErr,
			isNot: []error{ErrTimeout, ErrUnavailable},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStepError("submit", tt.sessionErr, tt.callerErr, tt.err)
			if tt.is == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.is)
			for _, e := range tt.isNot {
				assert.NotErrorIs(t, got, e)
			}
		})
	}

	assert.Equal(t, context.DeadlineExceeded, classifyStepError("submit", nil, context.DeadlineExceeded, context.Canceled))
}

func TestWaitForClassChange(t *testing.T) {
	const masked = "x-panel-bwrap x-masked"

	t.Run("returns once class changes", func(t *testing.T) {
		var reads atomic.Int32
		read := func(context.Context) (string, bool, error) {
			if reads.Add(1) < 3 {
				return masked, true, nil
			}
			return "x-panel-bwrap", true, nil
		}
		err := waitForClassChange(context.Background(), masked, time.Second, time.Millisecond, read)
		require.NoError(t, err)
		assert.Equal(t, int32(3), reads.Load())
	})

	t.Run("missing attribute keeps waiting", func(t *testing.T) {
		var reads atomic.Int32
		read := func(context.Context) (string, bool, error) {
			if reads.Add(1) == 1 {
				return "", false, nil
			}
			return "other", true, nil
		}
		require.NoError(t, waitForClassChange(context.Background(), masked, time.Second, time.Millisecond, read))
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		read := func(context.Context) (string, bool, error) { return masked, true, nil }
		err := waitForClassChange(context.Background(), masked, 10*time.Millisecond, time.Millisecond, read)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.NotErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caller cancel passes through", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		read := func(context.Context) (string, bool, error) {
			cancel()
			return masked, true, nil
		}
		err := waitForClassChange(ctx, masked, time.Second, time.Millisecond, read)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("read error is returned as is", func(t *testing.T) {
		read := func(context.Context) (string, bool, error) {
			return "", false, classifyStepError("panel class", context.Canceled, nil, context.Canceled)
		}
		err := waitForClassChange(context.Background(), masked, time.Second, time.Millisecond, read)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("non positive poll does not panic", func(t *testing.T) {
		read := func(context.Context) (string, bool, error) { return "other", true, nil }
		assert.NotPanics(t, func() {
			require.NoError(t, waitForClassChange(context.Background(), masked, time.Second, 0, read))
		})
	})
}
