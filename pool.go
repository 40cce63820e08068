package docpager

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ComposerPool manages a pool of Composer instances for parallel
// composition. Each composer has its own browser instance. Composers are
// created lazily on first acquire, all with the same options.
type ComposerPool struct {
	size      int
	opts      []Option
	composers []*Composer
	sem       chan *Composer
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewComposerPool creates a pool with capacity for n composers built with
// opts. Composers are created when acquired, not at pool creation.
func NewComposerPool(n int, opts ...Option) *ComposerPool {
	if n < 1 {
		n = 1
	}

	return &ComposerPool{
		size:      n,
		opts:      opts,
		composers: make([]*Composer, 0, n),
		sem:       make(chan *Composer, n),
	}
}

// Acquire gets a composer from the pool, creating one if needed.
// Blocks if all composers are in use.
func (p *ComposerPool) Acquire() (*Composer, error) {
	select {
	case c, ok := <-p.sem:
		if !ok {
			return nil, ErrComposerClosed
		}
		return c, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrComposerClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		c, err := NewComposer(p.opts...)
		p.mu.Lock()
		if err != nil {
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		p.composers = append(p.composers, c)
		p.mu.Unlock()

		return c, nil
	}
	p.mu.Unlock()

	c, ok := <-p.sem
	if !ok {
		return nil, ErrComposerClosed
	}
	return c, nil
}

// Release returns a composer to the pool.
// The lock is released before sending to avoid deadlock when channel is full.
func (p *ComposerPool) Release(c *Composer) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- c
}

// Close releases all browser resources.
// Returns an aggregated error if multiple composers fail to close.
func (p *ComposerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	composers := p.composers
	p.mu.Unlock()

	var errs []error
	for _, c := range composers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ComposerPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
