package ecs

import "fmt"

// EntityID is the handle of an entity in a tree: slot in the low 32 bits,
// generation in the high 32. Retiring a slot bumps its generation, so an
// old handle stops resolving instead of naming whatever reuses the slot.
// Generations start at 1; the zero EntityID is never live.
type EntityID uint64

func NewEntityID(slot, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(slot))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// EntityPool hands out EntityIDs for one tree. Retired slots are reused
// last-in first-out.
type EntityPool struct {
	gens []uint32 // current generation per slot
	free []uint32
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		gens: make([]uint32, 0, 256),
		free: make([]uint32, 0, 64),
	}
}

func (p *EntityPool) Create() EntityID {
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		return NewEntityID(slot, p.gens[slot])
	}
	p.gens = append(p.gens, 1)
	slot := uint32(len(p.gens) - 1)
	return NewEntityID(slot, 1)
}

func (p *EntityPool) Alive(id EntityID) bool {
	slot := int(id.Index())
	return slot < len(p.gens) && p.gens[slot] == id.Generation()
}

// Destroy retires id. The tree calls it from its destroy flush, after the
// traversal that retired the entity, so a slot is never reused inside the
// pass that freed it. Stale ids are ignored.
func (p *EntityPool) Destroy(id EntityID) {
	if !p.Alive(id) {
		return
	}
	slot := id.Index()
	p.gens[slot]++
	p.free = append(p.free, slot)
}

// Len returns the number of live handles.
func (p *EntityPool) Len() int {
	return len(p.gens) - len(p.free)
}
