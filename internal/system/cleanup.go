package system

import (
	"time"

	"github.com/pinsim/pinsim/internal/core/ecs"
	coresys "github.com/pinsim/pinsim/internal/core/system"
)

// CleanupSystem ends every tick by unlinking the entities destroyed during
// it and retiring their handles. Destroys outside a traversal flush on
// their own; this catches the ones deferred by Tick and dispatch.
type CleanupSystem struct {
	tree *ecs.Tree
}

func NewCleanupSystem(tree *ecs.Tree) *CleanupSystem {
	return &CleanupSystem{tree: tree}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(time.Duration) { s.tree.FlushDestroyQueue() }
