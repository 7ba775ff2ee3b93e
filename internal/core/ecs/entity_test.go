package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityPoolGenerations(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	b := p.Create()
	assert.False(t, a.IsZero())
	assert.Equal(t, uint32(1), a.Generation())
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, p.Len())

	p.Destroy(a)
	p.Destroy(a)
	assert.False(t, p.Alive(a))
	assert.Equal(t, 1, p.Len())

	c := p.Create()
	assert.Equal(t, a.Index(), c.Index())
	assert.Equal(t, uint32(2), c.Generation())
	assert.True(t, p.Alive(c))
	assert.False(t, p.Alive(a))
	assert.Equal(t, "0:2", c.String())
}
