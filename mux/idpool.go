package mux

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/pkopriv2/sluice/wire"
)

// The pool hands out ids from the range [poolMinId, poolMaxId].  Ids
// below the minimum are reserved for fixed routes, i.e. the bootstrap
// endpoint.
const (
	poolMinId wire.Id = 2
	poolMaxId wire.Id = 1 << 20
)

// Each time the pool is exhausted it grows by this amount.
const poolExpandInc = 16

// A memory efficient pool of available endpoint ids.  The pool grows
// upward on demand: every id below the current watermark has been
// handed out at least once.  Unlike a sync.Pool, nothing is ever
// discarded, so a returned id stays available.
//
// The pool does not track ownership.  Returning an id that was never
// issued corrupts it, so that panics instead.
//
// This object is thread-safe.
type IdPool struct {
	lock  sync.Mutex
	avail *list.List
	next  wire.Id
}

func NewIdPool() *IdPool {
	pool := &IdPool{avail: list.New(), next: poolMinId}
	pool.expand(poolExpandInc)
	return pool
}

// Internal use only.  Callers must hold the lock.  Grows the set of
// available ids by num, or until the range is exhausted.
func (p *IdPool) expand(num int) error {
	start := p.next
	for ; p.next < start+wire.Id(num) && p.next <= poolMaxId; p.next++ {
		p.avail.PushBack(p.next)
	}

	// if the watermark didn't move, the range is used up.
	if p.next == start {
		return errors.Wrapf(CapacityError, "Id range exhausted at [%v]", poolMaxId)
	}
	return nil
}

// Take removes an available id from the pool.  On a non-nil error the
// returned id must not be used.
func (p *IdPool) Take() (wire.Id, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if item := p.avail.Front(); item != nil {
		return p.avail.Remove(item).(wire.Id), nil
	}

	if err := p.expand(poolExpandInc); err != nil {
		return wire.Invalid, err
	}

	return p.avail.Remove(p.avail.Front()).(wire.Id), nil
}

// Return gives an id back to the pool.  Only ids that have been taken
// may be returned.
func (p *IdPool) Return(id wire.Id) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if id < poolMinId || id >= p.next {
		panic(fmt.Sprintf("mux: returning id [%v] that was never issued", id))
	}

	p.avail.PushFront(id)
}
