package system

import (
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	coresys "github.com/pinsim/pinsim/internal/core/system"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/physics"
)

// PhysicsSystem steps the world once per tick and forwards contact
// transitions to the entities owning the touching bodies. Phase 3
// (Physics).
//
// Each side of a contact receives beginContact (and impact, when the
// approach speed is non-zero) or endContact, with Other set to the entity
// on the far side. Bodies without an owner are skipped.
type PhysicsSystem struct {
	world *physics.World
	tree  *ecs.Tree
	bus   *event.Bus[ecs.EntityID]

	contacts uint64
}

func NewPhysicsSystem(world *physics.World, tree *ecs.Tree, bus *event.Bus[ecs.EntityID]) *PhysicsSystem {
	return &PhysicsSystem{world: world, tree: tree, bus: bus}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	s.world.Step(dt)
	s.world.DrainContacts(s.forward)
}

// Contacts returns how many contact transitions have been forwarded.
func (s *PhysicsSystem) Contacts() uint64 { return s.contacts }

func (s *PhysicsSystem) forward(c physics.Contact) {
	s.contacts++
	a, okA := s.tree.OwnerOf(c.A)
	b, okB := s.tree.OwnerOf(c.B)
	if okA {
		s.notify(a, b, okB, c)
	}
	if okB {
		s.notify(b, a, okA, c)
	}
}

func (s *PhysicsSystem) notify(self, other ecs.Node, hasOther bool, c physics.Contact) {
	if !hasOther {
		other = nil
	}
	id := self.Base().ID()
	if !c.Begin {
		s.bus.DispatchTo(id, events.EndContact{Other: other})
		return
	}
	s.bus.DispatchTo(id, events.BeginContact{Other: other, Speed: c.Speed})
	if c.Speed > 0 {
		s.bus.DispatchTo(id, events.Impact{Other: other, Speed: c.Speed})
	}
}
