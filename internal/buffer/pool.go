package buffer

import (
	"sync"

	"github.com/san-kum/nbodyffi/internal/vector"
)

// Pool recycles staging buffers of one fixed ensemble size.
type Pool[V vector.Vector] struct {
	pool sync.Pool
	size int
}

func NewPool[V vector.Vector](n int) *Pool[V] {
	return &Pool[V]{
		size: n,
		pool: sync.Pool{
			New: func() interface{} {
				return New[V](n)
			},
		},
	}
}

func (p *Pool[V]) Get() *Buffer[V] {
	return p.pool.Get().(*Buffer[V])
}

// Put zeroes b and returns it to the pool. Buffers of the wrong size or
// already released are dropped.
func (p *Pool[V]) Put(b *Buffer[V]) {
	if b == nil || b.released || len(b.data) != p.size {
		return
	}
	clear(b.data)
	p.pool.Put(b)
}

// Marshal is ToNative backed by the pool.
func (p *Pool[V]) Marshal(seq []V) (*Buffer[V], error) {
	if err := CheckLen(p.size, len(seq)); err != nil {
		return nil, err
	}
	b := p.Get()
	if err := b.Fill(seq); err != nil {
		return nil, err
	}
	return b, nil
}
