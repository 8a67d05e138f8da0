package likes

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcher(t *testing.T) {
	t.Run("close drains queued jobs", func(t *testing.T) {
		d := NewDispatcher(2, time.Second, zap.NewNop())
		var ran atomic.Int32
		for i := 0; i < 10; i++ {
			d.Dispatch("job", func(context.Context) error {
				time.Sleep(time.Millisecond)
				ran.Add(1)
				return nil
			})
		}
		require.NoError(t, d.Close(context.Background()))
		assert.Equal(t, int32(10), ran.Load())
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		d := NewDispatcher(2, time.Second, zap.NewNop())
		var running, peak atomic.Int32
		for i := 0; i < 8; i++ {
			d.Dispatch("job", func(context.Context) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}
		require.NoError(t, d.Close(context.Background()))
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("jobs get a deadline and failures do not stop others", func(t *testing.T) {
		d := NewDispatcher(1, 50*time.Millisecond, zap.NewNop())
		var hadDeadline atomic.Bool
		var ran atomic.Int32
		d.Dispatch("fails", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			hadDeadline.Store(ok)
			return errors.New("boom")
		})
		d.Dispatch("ok", func(context.Context) error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, d.Close(context.Background()))
		assert.True(t, hadDeadline.Load())
		assert.Equal(t, int32(1), ran.Load())
	})

	t.Run("dispatch after close is dropped", func(t *testing.T) {
		d := NewDispatcher(1, time.Second, zap.NewNop())
		require.NoError(t, d.Close(context.Background()))

		var ran atomic.Bool
		d.Dispatch("late", func(context.Context) error {
			ran.Store(true)
			return nil
		})
		time.Sleep(10 * time.Millisecond)
		assert.False(t, ran.Load())
	})
}
