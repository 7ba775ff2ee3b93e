package ecs

import (
	"errors"
	"fmt"
	"time"

	"github.com/pinsim/pinsim/internal/core/event"
	"go.uber.org/zap"
)

var (
	ErrHasParent    = errors.New("ecs: entity already has a parent")
	ErrAlreadyAdded = errors.New("ecs: entity already added")
	ErrDestroyed    = errors.New("ecs: entity destroyed")
)

type lifeState uint8

const (
	stateDetached lifeState = iota
	stateLive
	stateDestroying
	stateDead
)

// Node is anything built on an embedded Entity. Concrete entity types embed
// Entity and opt into lifecycle hooks by implementing Adder, Ticker and the
// other hook interfaces.
type Node interface {
	Base() *Entity
}

// Entity is the lifecycle unit: it owns a Resources bundle, its children,
// a tag set and a per-instance handler override table. The zero value is a
// detached entity ready to be added to a Tree.
type Entity struct {
	id   EntityID
	tree *Tree
	self Node

	// parent is a lookup handle only; ownership flows parent -> children.
	parent   EntityID
	adopted  bool
	children []EntityID
	pending  []Node

	tags      []string
	static    event.Table
	overrides event.Table
	res       Resources
	timers    []*Timer

	state lifeState
	since uint64
}

func (e *Entity) Base() *Entity { return e }

func (e *Entity) ID() EntityID { return e.id }

// Node returns the concrete value that embeds e, or nil before it is added.
func (e *Entity) Node() Node { return e.self }

// Alive reports whether the entity is in a tree and not destroyed.
func (e *Entity) Alive() bool { return e.state == stateLive }

// Destroyed reports whether Destroy has been called.
func (e *Entity) Destroyed() bool { return e.state >= stateDestroying }

func (e *Entity) Resources() *Resources {
	e.res.owner = e
	return &e.res
}

// Context returns the simulation context, or nil while detached.
func (e *Entity) Context() Context {
	if e.tree == nil {
		return nil
	}
	return e.tree.ctx
}

// Parent returns the owning entity, if any.
func (e *Entity) Parent() (Node, bool) {
	if e.parent.IsZero() || e.tree == nil {
		return nil, false
	}
	return e.tree.Lookup(e.parent)
}

// Children returns the live children in insertion order.
func (e *Entity) Children() []Node {
	if e.tree == nil {
		out := make([]Node, len(e.pending))
		copy(out, e.pending)
		return out
	}
	out := make([]Node, 0, len(e.children))
	for _, id := range e.children {
		if n, ok := e.tree.Lookup(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// AddChild transfers ownership of child to e and returns child for
// chaining. Reparenting is not supported. When e is already live the child
// joins the tree at once; a child whose insertion fails is destroyed and
// the error returned.
func (e *Entity) AddChild(child Node) (Node, error) {
	c := child.Base()
	switch {
	case c.adopted:
		return nil, ErrHasParent
	case c.state != stateDetached:
		return nil, ErrAlreadyAdded
	case e.state >= stateDestroying:
		return nil, ErrDestroyed
	}
	c.adopted = true
	if e.state != stateLive {
		e.pending = append(e.pending, child)
		return child, nil
	}
	if err := e.tree.attach(child, e); err != nil {
		e.tree.destroy(c)
		return nil, fmt.Errorf("add child %T: %w", child, err)
	}
	return child, nil
}

// Destroy tears down e and its subtree. It is idempotent and safe to call
// from inside a tick, render or event handler: no callback on e fires after
// it returns.
func (e *Entity) Destroy() {
	if e.tree == nil {
		e.destroyDetached()
		return
	}
	e.tree.destroy(e)
}

// Fail logs err against e and destroys it. Runtime failures local to one
// entity go through here rather than stopping the simulation.
func (e *Entity) Fail(err error) {
	if e.tree != nil {
		e.tree.log.Warn("entity failed, destroying",
			zap.Stringer("id", e.id),
			zap.String("type", fmt.Sprintf("%T", e.self)),
			zap.Error(err))
	}
	e.Destroy()
}

func (e *Entity) destroyDetached() {
	if e.state >= stateDestroying {
		return
	}
	e.state = stateDestroying
	for _, c := range e.pending {
		c.Base().Destroy()
	}
	e.pending = nil
	e.cancelTimers()
	e.res.owner = e
	e.res.release()
	e.state = stateDead
}

// Handle installs a per-instance handler for name. It takes precedence over
// a static handler of the same name.
func (e *Entity) Handle(name string, h event.Handler) {
	if e.state >= stateDestroying {
		return
	}
	if e.overrides == nil {
		e.overrides = make(event.Table)
	}
	e.overrides[name] = h
	if e.state == stateLive {
		e.tree.interests.Add(e.id, name)
	}
}

// Unhandle removes a per-instance handler. A static handler of the same
// name stays in effect.
func (e *Entity) Unhandle(name string) {
	if _, ok := e.overrides[name]; !ok {
		return
	}
	delete(e.overrides, name)
	if e.state != stateLive {
		return
	}
	if _, ok := e.static[name]; !ok {
		e.tree.interests.Drop(e.id, name)
	}
}

// Handles reports whether e reacts to name.
func (e *Entity) Handles(name string) bool {
	if _, ok := e.overrides[name]; ok {
		return true
	}
	_, ok := e.staticTable()[name]
	return ok
}

func (e *Entity) staticTable() event.Table {
	if e.static != nil || e.self == nil {
		return e.static
	}
	if hp, ok := e.self.(HandlerProvider); ok {
		e.static = hp.Handlers()
	}
	return e.static
}

func (e *Entity) handler(name string) (event.Handler, bool) {
	if h, ok := e.overrides[name]; ok {
		return h, true
	}
	h, ok := e.static[name]
	return h, ok
}

// Dispatch sends ev through the simulation bus. It is dropped while e is
// detached.
func (e *Entity) Dispatch(ev event.Event) {
	if ctx := e.Context(); ctx != nil {
		ctx.Dispatch(ev)
	}
}

func (e *Entity) AddTag(tag string) {
	if e.state >= stateDestroying || e.HasTag(tag) {
		return
	}
	e.tags = append(e.tags, tag)
	if e.state == stateLive {
		e.tree.tags.Add(e.id, tag)
	}
}

func (e *Entity) RemoveTag(tag string) {
	for i, t := range e.tags {
		if t == tag {
			e.tags = append(e.tags[:i:i], e.tags[i+1:]...)
			if e.state == stateLive {
				e.tree.tags.RemoveTag(e.id, tag)
			}
			return
		}
	}
}

func (e *Entity) HasTag(tag string) bool {
	for _, t := range e.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagList returns a copy of the entity's tags.
func (e *Entity) TagList() []string {
	out := make([]string, len(e.tags))
	copy(out, e.tags)
	return out
}

// Wait runs fn once d of simulated time has passed. The timer is cancelled,
// never fired, if e is destroyed first.
func (e *Entity) Wait(d time.Duration, fn func()) *Timer {
	t := &Timer{remaining: d, fn: fn}
	if e.state >= stateDestroying {
		t.done = true
		return t
	}
	e.timers = append(e.timers, t)
	return t
}

// ClearTimers cancels every pending wait.
func (e *Entity) ClearTimers() {
	e.cancelTimers()
}

// PendingTimers returns the number of waits not yet fired or cancelled.
func (e *Entity) PendingTimers() int {
	n := 0
	for _, t := range e.timers {
		if !t.done {
			n++
		}
	}
	return n
}
