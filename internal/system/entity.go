package system

import (
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	coresys "github.com/pinsim/pinsim/internal/core/system"
)

// EntitySystem runs the OnTick traversal. Phase 2 (Update).
type EntitySystem struct {
	tree *ecs.Tree
}

func NewEntitySystem(tree *ecs.Tree) *EntitySystem {
	return &EntitySystem{tree: tree}
}

func (s *EntitySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EntitySystem) Update(dt time.Duration) {
	s.tree.Tick(dt)
}
