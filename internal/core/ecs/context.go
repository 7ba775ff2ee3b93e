package ecs

import (
	"time"

	"github.com/pinsim/pinsim/internal/core/event"
	"go.uber.org/zap"
)

// Opaque collaborator handles. The tree never looks inside them; it only
// hands them back to the collaborator that created them.
type (
	Body         = any
	Constraint   = any
	Spring       = any
	RenderObject = any
)

// Physics is the physics-engine capability. Add calls may reject a handle
// (malformed shape, foreign type); the tree treats that as a construction
// failure of the owning entity.
type Physics interface {
	AddBody(b Body) error
	RemoveBody(b Body)
	AddConstraint(c Constraint) error
	RemoveConstraint(c Constraint)
	AddSpring(s Spring) error
	RemoveSpring(s Spring)
}

// Scene is the renderer capability for per-entity render objects.
type Scene interface {
	Add(obj RenderObject)
	Remove(obj RenderObject)
}

// Disposable is any owned resource released once on destroy.
type Disposable interface {
	Dispose()
}

// Context is handed to every entity on insertion. It replaces process-wide
// singletons so several simulations can coexist.
type Context interface {
	Dispatch(ev event.Event)
	DispatchAfter(d time.Duration, ev event.Event)
	Tree() *Tree
	Physics() Physics // nil when the simulation has no physics
	Scene() Scene     // nil when headless
	Log() *zap.Logger
	Elapsed() time.Duration
	Paused() bool
	SlowMo() float64
}

// Lifecycle hooks. An entity opts in by implementing any of these on the
// type that embeds Entity.
type (
	Adder interface {
		OnAdd(ctx Context) error
	}
	Ticker interface {
		OnTick(dt time.Duration)
	}
	Renderer interface {
		OnRender()
	}
	Pauser interface {
		OnPause()
	}
	Unpauser interface {
		OnUnpause()
	}
	Destroyer interface {
		OnDestroy()
	}
	// HandlerProvider supplies the static handler table of a type.
	HandlerProvider interface {
		Handlers() event.Table
	}
	// Tagger supplies the static tags of a type.
	Tagger interface {
		Tags() []string
	}
)
