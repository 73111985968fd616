package mux

import (
	"testing"

	"github.com/pkopriv2/sluice/wire"
	"github.com/stretchr/testify/assert"
)

func TestIdPool_Take_unique(t *testing.T) {
	pool := NewIdPool()

	seen := make(map[wire.Id]struct{})
	for i := 0; i < 100; i++ {
		id, err := pool.Take()
		assert.Nil(t, err)
		assert.True(t, id >= poolMinId)

		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestIdPool_Return_reuses(t *testing.T) {
	pool := NewIdPool()

	id, err := pool.Take()
	assert.Nil(t, err)

	pool.Return(id)

	next, err := pool.Take()
	assert.Nil(t, err)
	assert.Equal(t, id, next)
}

func TestIdPool_Return_neverIssuedPanics(t *testing.T) {
	pool := NewIdPool()

	assert.Panics(t, func() { pool.Return(wire.Bootstrap) })
	assert.Panics(t, func() { pool.Return(wire.Id(1 << 19)) })
}
