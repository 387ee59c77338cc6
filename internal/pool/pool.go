package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic sync.Pool wrapper that provides type safety and a
// running count of allocations the factory has had to serve, so a caller
// on the request hot path (parser codecs, buffers, contexts) can tell
// whether its pool is actually absorbing reuse or just growing.
type Pool[T any] struct {
	pool   sync.Pool
	misses uint64
}

// New creates a new Pool with the given factory function.
// The factory function is called when the pool needs to create a new item.
func New[T any](factory func() T) *Pool[T] {
	p := &Pool[T]{}
	p.pool.New = func() interface{} {
		atomic.AddUint64(&p.misses, 1)
		return factory()
	}
	return p
}

// Get retrieves an item from the pool, or creates a new one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns an item to the pool.
func (p *Pool[T]) Put(x T) {
	p.pool.Put(x)
}

// Misses returns the number of Get calls that required the factory to
// allocate a fresh item rather than reusing a pooled one.
func (p *Pool[T]) Misses() uint64 {
	return atomic.LoadUint64(&p.misses)
}

// BufferPool is a Pool specialized for byte-slice-like buffers, sizing new
// allocations instead of relying on the zero value a bare Pool would hand
// back.
type BufferPool[T ~[]byte] struct {
	Pool[T]
	size int
}

// Get retrieves a buffer from the pool.
// The buffer's length is reset to 0 but its capacity is preserved.
func (p *BufferPool[T]) Get() T {
	buf := p.Pool.Get()
	return buf[:0] // Reset the buffer length to 0 but keep the capacity
}

// NewBuffer creates a new BufferPool with the given size.
// The size is used as the initial capacity for new buffers.
func NewBuffer[T ~[]byte](size int, factory func(size int) T) *BufferPool[T] {
	bp := &BufferPool[T]{size: size}
	bp.pool.New = func() interface{} {
		atomic.AddUint64(&bp.misses, 1)
		return factory(size)
	}
	return bp
}

// GetWithSize retrieves a buffer from the pool with at least the specified
// size, discarding (back to the pool) one that's too small rather than
// growing it in place, since growth would defeat reuse for the next caller.
func (p *BufferPool[T]) GetWithSize(size int) T {
	buf := p.Get()
	if cap(buf) < size {
		p.Put(buf)
		atomic.AddUint64(&p.misses, 1)
		return make(T, 0, size)
	}
	return buf[:0] // Reset the buffer length to 0 but keep the capacity
}
