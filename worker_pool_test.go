package Govector

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	assert.Equal(t, 3, NewWorkerPool(3).Size())

	size := NewWorkerPool(0).Size()
	assert.GreaterOrEqual(t, size, 4)
	assert.LessOrEqual(t, size, 16)

	assert.Same(t, GetWorkerPool(), GetWorkerPool())
}

func TestWorkerPoolExecute(t *testing.T) {
	pool := NewWorkerPool(2)

	data, err := pool.Execute(func() ([]byte, error) {
		return []byte("POINT(1 2)"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "POINT(1 2)", string(data))

	boom := errors.New("boom")
	_, err = pool.Execute(func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = pool.Execute(func() ([]byte, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil, nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Greater(t, peak.Load(), int32(0))
	assert.Equal(t, int(peak.Load()), pool.Peak())
}
