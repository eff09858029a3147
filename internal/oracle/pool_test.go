package oracle

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

type fakeSession struct {
	alive    atomic.Bool
	closed   atomic.Bool
	inFlight *atomic.Int32
	maxSeen  *atomic.Int32
	search   func(address string) (LookupResult, error)
}

func (f *fakeSession) Search(ctx context.Context, address string) (LookupResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if n <= max || f.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if f.search != nil {
		return f.search(address)
	}
	return Matched(address, "中壢區"+address), nil
}

func (f *fakeSession) Alive(ctx context.Context) bool { return f.alive.Load() }

func (f *fakeSession) Close() { f.closed.Store(true) }

type fakeFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	fail     error
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	search   func(address string) (LookupResult, error)
}

func (ff *fakeFactory) open(ctx context.Context) (Session, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.fail != nil {
		return nil, ff.fail
	}
	s := &fakeSession{inFlight: &ff.inFlight, maxSeen: &ff.maxSeen, search: ff.search}
	s.alive.Store(true)
	ff.sessions = append(ff.sessions, s)
	return s, nil
}

func (ff *fakeFactory) count() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return len(ff.sessions)
}

func TestPool_LazyCreateAndReuse(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	assert.Equal(t, 0, ff.count())

	for i := 0; i < 3; i++ {
		res, err := pool.Lookup(context.Background(), "中山路5號")
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, "中壢區中山路5號", res.Matched)
	}

	assert.Equal(t, 1, ff.count())
	assert.Equal(t, PoolStats{Size: 1, Idle: 1, Created: 1}, pool.Stats())
}

func TestPool_SingleSlotSerializesLookups(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Lookup(context.Background(), "中山路")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ff.maxSeen.Load())
}

func TestPool_RecreatesUnhealthySession(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	_, err := pool.Lookup(context.Background(), "a")
	require.NoError(t, err)
	ff.sessions[0].alive.Store(false)

	_, err = pool.Lookup(context.Background(), "b")
	require.NoError(t, err)

	assert.Equal(t, 2, ff.count())
	assert.True(t, ff.sessions[0].closed.Load())
	assert.Equal(t, int64(1), pool.Stats().Recycled)
}

func TestPool_FactoryFailureIsUnavailable(t *testing.T) {
	ff := &fakeFactory{fail: errors.New("chrome not found")}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	_, err := pool.Lookup(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "chrome not found")

	// slot was handed back, the next call tries again
	ff.mu.Lock()
	ff.fail = nil
	ff.mu.Unlock()
	_, err = pool.Lookup(context.Background(), "a")
	assert.NoError(t, err)
}

func TestPool_UnavailableSearchDropsSession(t *testing.T) {
	ff := &fakeFactory{search: func(string) (LookupResult, error) {
		return LookupResult{}, ErrUnavailable
	}}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	_, err := pool.Lookup(context.Background(), "a")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, ff.sessions[0].closed.Load())

	_, _ = pool.Lookup(context.Background(), "a")
	assert.Equal(t, 2, ff.count())
}

func TestPool_SearchPanicRecyclesSession(t *testing.T) {
	var calls atomic.Int32
	ff := &fakeFactory{search: func(address string) (LookupResult, error) {
		if calls.Add(1) == 1 {
			panic("tab crashed")
		}
		return Matched(address, "中壢區"+address), nil
	}}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	res, err := pool.Lookup(context.Background(), "a")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "tab crashed")
	assert.False(t, res.Found)
	assert.True(t, ff.sessions[0].closed.Load())
	assert.Equal(t, int64(1), pool.Stats().Recycled)

	res, err = pool.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 2, ff.count())
	assert.Equal(t, 1, pool.Stats().Idle)
}

func TestPool_TimeoutKeepsSession(t *testing.T) {
	ff := &fakeFactory{search: func(string) (LookupResult, error) {
		return LookupResult{}, ErrTimeout
	}}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	_, err := pool.Lookup(context.Background(), "a")
	assert.ErrorIs(t, err, ErrTimeout)
	_, err = pool.Lookup(context.Background(), "a")
	assert.ErrorIs(t, err, ErrTimeout)

	assert.Equal(t, 1, ff.count())
}

func TestPool_WaitForSlotHonoursContext(t *testing.T) {
	release := make(chan struct{})
	ff := &fakeFactory{search: func(address string) (LookupResult, error) {
		<-release
		return NotFound(address), nil
	}}
	pool := NewPool(ff.open, 1, nil, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = pool.Lookup(context.Background(), "slow")
	}()

	require.Eventually(t, func() bool { return pool.Stats().Idle == 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Lookup(ctx, "queued")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done
}

func TestPool_WarmAndClose(t *testing.T) {
	ff := &fakeFactory{}
	pool := NewPool(ff.open, 3, nil, zap.NewNop())

	require.NoError(t, pool.Warm(context.Background()))
	assert.Equal(t, 3, ff.count())
	require.NoError(t, pool.Ready(context.Background()))

	require.NoError(t, pool.Close(context.Background()))
	for _, s := range ff.sessions {
		assert.True(t, s.closed.Load())
	}

	_, err := pool.Lookup(context.Background(), "a")
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPool_CloseDeadlineClosesIdleSessions(t *testing.T) {
	release := make(chan struct{})
	var block atomic.Bool
	ff := &fakeFactory{search: func(address string) (LookupResult, error) {
		if block.Load() {
			<-release
		}
		return NotFound(address), nil
	}}
	pool := NewPool(ff.open, 2, nil, zap.NewNop())
	require.NoError(t, pool.Warm(context.Background()))
	require.Equal(t, 2, ff.count())

	block.Store(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = pool.Lookup(context.Background(), "slow")
	}()
	require.Eventually(t, func() bool { return pool.Stats().Idle == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Close(ctx), context.DeadlineExceeded)

	closedCount := func() int {
		n := 0
		for _, s := range ff.sessions {
			if s.closed.Load() {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, closedCount())

	close(release)
	<-done
	assert.Equal(t, 2, closedCount())
}

func TestPool_Limiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 1))

	ff := &fakeFactory{}
	pool := NewPool(ff.open, 1, NewLimiter(1, 1), zap.NewNop())

	_, err := pool.Lookup(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = pool.Lookup(ctx, "b")
	assert.Error(t, err)
}

func TestFunc_Lookup(t *testing.T) {
	var o Oracle = Func(func(ctx context.Context, address string) (LookupResult, error) {
		return NotFound(address), nil
	})

	res, err := o.Lookup(context.Background(), "中山路")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "中山路", res.Query)
}
