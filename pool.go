package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tutortoise/superxbr-service/superxbr"
)

const (
	// DefaultPoolSize Pool configuration
	DefaultPoolSize = 4
	AcquireTimeout  = 5 * time.Second
)

var (
	ErrPoolClosed  = errors.New("pool is closed")
	ErrPoolTimeout = errors.New("timeout waiting for available scaler")
)

// ScalerPool bounds the number of images scaled at once. Each slot holds a
// scaler whose workers share the diagonal pass of one image.
type ScalerPool struct {
	scalers        chan *superxbr.Scaler
	size           int
	acquireTimeout time.Duration
	mu             sync.Mutex
	closed         bool
	metrics        *PoolMetrics
}

type PoolMetrics struct {
	mu              sync.RWMutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

// PoolStats is a point-in-time copy of PoolMetrics.
type PoolStats struct {
	PoolSize        int   `json:"pool_size"`
	InUse           int   `json:"scalers_in_use"`
	TotalAcquired   int64 `json:"total_acquired"`
	TotalReleased   int64 `json:"total_released"`
	AcquireFailures int64 `json:"acquire_failures"`
	WaitTimeMs      int64 `json:"wait_time_ms"`
}

func NewScalerPool(size, workers int, acquireTimeout time.Duration) *ScalerPool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if acquireTimeout <= 0 {
		acquireTimeout = AcquireTimeout
	}

	pool := &ScalerPool{
		scalers:        make(chan *superxbr.Scaler, size),
		size:           size,
		acquireTimeout: acquireTimeout,
		metrics:        &PoolMetrics{},
	}
	for i := 0; i < size; i++ {
		pool.scalers <- superxbr.NewScaler(workers)
	}
	return pool
}

func (p *ScalerPool) Acquire(ctx context.Context) (*superxbr.Scaler, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.waitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case scaler, ok := <-p.scalers:
		if !ok {
			return nil, ErrPoolClosed
		}
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return scaler, nil
	case <-timer.C:
		p.metrics.mu.Lock()
		p.metrics.acquireFailures++
		p.metrics.mu.Unlock()
		return nil, ErrPoolTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ScalerPool) Release(scaler *superxbr.Scaler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	if p.closed {
		return
	}
	p.scalers <- scaler
}

// Close stops handing out scalers. Scalers still in use are dropped on release.
func (p *ScalerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.scalers)
}

func (p *ScalerPool) Size() int {
	return p.size
}

func (p *ScalerPool) GetMetrics() PoolStats {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return PoolStats{
		PoolSize:        p.size,
		InUse:           p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
		WaitTimeMs:      p.metrics.waitTime.Milliseconds(),
	}
}
