package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrPoolClosed is returned for lookups after Close
var ErrPoolClosed = fmt.Errorf("%w: pool closed", ErrUnavailable)

// Session is one live browser tab able to run lookups
type Session interface {
	Search(ctx context.Context, address string) (LookupResult, error)
	Alive(ctx context.Context) bool
	Close()
}

// SessionFactory opens a new session
type SessionFactory func(ctx context.Context) (Session, error)

// PoolStats snapshot of the pool
type PoolStats struct {
	Size     int   `json:"size"`
	Idle     int   `json:"idle"`
	Created  int64 `json:"created"`
	Recycled int64 `json:"recycled"`
}

// Pool hands out a fixed number of sessions. A lookup holds its session
// for the whole page interaction, so with one slot lookups run strictly one
// after another and the rest queue on the channel.
type Pool struct {
	factory SessionFactory
	slots   chan Session
	size    int
	limiter *rate.Limiter
	logger  *zap.Logger

	created  atomic.Int64
	recycled atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool of size slots. Sessions are opened lazily; call
// Warm to open them up front. limiter may be nil.
func NewPool(factory SessionFactory, size int, limiter *rate.Limiter, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		factory: factory,
		slots:   make(chan Session, size),
		size:    size,
		limiter: limiter,
		logger:  logger,
	}
	for i := 0; i < size; i++ {
		p.slots <- nil
	}
	return p
}

// NewLimiter builds the lookup pacing limiter, nil when perSecond <= 0
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Warm opens every slot's session
func (p *Pool) Warm(ctx context.Context) error {
	var errs []error
	for i := 0; i < p.size; i++ {
		s, err := p.acquire(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.release(s, nil)
	}
	return errors.Join(errs...)
}

// Lookup runs one query on a pooled session. A panic inside the session is
// reported as ErrUnavailable and the session is recycled.
func (p *Pool) Lookup(ctx context.Context, address string) (result LookupResult, err error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return LookupResult{}, err
		}
	}

	s, err := p.acquire(ctx)
	if err != nil {
		return LookupResult{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Browser session panicked", zap.Any("panic", r))
			result = LookupResult{}
			err = fmt.Errorf("%w: session panic: %v", ErrUnavailable, r)
		}
		p.release(s, err)
	}()

	return s.Search(ctx, address)
}

// Ready checks that a healthy session can be obtained
func (p *Pool) Ready(ctx context.Context) error {
	s, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	p.release(s, nil)
	return nil
}

// Stats reports pool counters
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:     p.size,
		Idle:     len(p.slots),
		Created:  p.created.Load(),
		Recycled: p.recycled.Load(),
	}
}

// Close waits for every slot to come back and closes the sessions. When ctx
// ends first the idle slots are still closed; sessions in use are closed by
// release once their lookup finishes.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	for i := 0; i < p.size; i++ {
		select {
		case s := <-p.slots:
			if s != nil {
				s.Close()
			}
		case <-ctx.Done():
			p.drainIdle()
			return ctx.Err()
		}
	}
	return nil
}

func (p *Pool) drainIdle() {
	for {
		select {
		case s := <-p.slots:
			if s != nil {
				s.Close()
			}
		default:
			return
		}
	}
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// acquire takes a slot and makes sure it holds a healthy session
func (p *Pool) acquire(ctx context.Context) (Session, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	var s Session
	select {
	case s = <-p.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if s != nil && !s.Alive(ctx) {
		p.logger.Warn("Browser session unhealthy, recreating")
		s.Close()
		s = nil
		p.recycled.Add(1)
	}

	if s == nil {
		created, err := p.factory(ctx)
		if err != nil {
			p.slots <- nil
			p.logger.Error("Failed to open browser session", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		p.created.Add(1)
		p.logger.Info("Browser session opened", zap.Int64("created", p.created.Load()))
		s = created
	}

	return s, nil
}

// release puts the session back. A session that reported itself unusable
// is dropped so the next acquire opens a fresh one.
func (p *Pool) release(s Session, err error) {
	if errors.Is(err, ErrUnavailable) {
		s.Close()
		s = nil
		p.recycled.Add(1)
	} else if p.isClosed() {
		s.Close()
		s = nil
	}
	p.slots <- s
}
