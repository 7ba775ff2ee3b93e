package ecs

import (
	"fmt"
	"time"

	"github.com/pinsim/pinsim/internal/core/event"
	"go.uber.org/zap"
)

// Tree owns the forest of root entities. Root insertion order defines
// tick, render and dispatch order. Entities live in an arena addressed by
// generational handles; the tag index, the handler interest registry and
// the body owner index are kept current on every add and destroy.
//
// Traversals work on snapshots: entities added during a traversal are first
// visited by the next one, and entities destroyed during a traversal are
// skipped for the rest of it. Handles of destroyed entities are retired by
// FlushDestroyQueue, which runs once the outermost traversal ends and again
// from the cleanup phase.
type Tree struct {
	log *zap.Logger
	ctx Context

	pool      *EntityPool
	registry  *Registry
	arena     *Store[Entity]
	tags      *tagIndex
	interests *event.Interests[EntityID]
	bodies    *bodyIndex

	roots        []EntityID
	destroyQueue []*Entity

	pass       uint64
	traversing int
}

func NewTree(log *zap.Logger) *Tree {
	t := &Tree{
		log:          log,
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		arena:        NewStore[Entity](),
		tags:         newTagIndex(),
		interests:    event.NewInterests[EntityID](),
		bodies:       newBodyIndex(),
		roots:        make([]EntityID, 0, 64),
		destroyQueue: make([]*Entity, 0, 64),
	}
	t.registry.Register(t.arena)
	t.registry.Register(t.tags)
	t.registry.Register(t.interests)
	t.registry.Register(t.bodies)
	return t
}

// Attach sets the context handed to OnAdd and used for resource
// registration. Call it before adding entities.
func (t *Tree) Attach(ctx Context) { t.ctx = ctx }

// Interests exposes the handler filter cache for building an event.Bus.
func (t *Tree) Interests() *event.Interests[EntityID] { return t.interests }

// Registry lets callers register extra per-entity indexes that must be
// cleared on destroy.
func (t *Tree) Registry() *Registry { return t.registry }

// AddEntity registers n as a root, runs OnAdd parent-first over its
// subtree and indexes its tags and handlers. On failure the whole subtree
// is destroyed, so nothing stays partially registered.
func (t *Tree) AddEntity(n Node) (Node, error) {
	e := n.Base()
	switch {
	case e.adopted:
		return nil, ErrHasParent
	case e.state != stateDetached:
		return nil, ErrAlreadyAdded
	}
	if err := t.attach(n, nil); err != nil {
		t.destroy(e)
		return nil, fmt.Errorf("add %T: %w", n, err)
	}
	if e.state == stateLive {
		t.roots = append(t.roots, e.id)
	}
	return n, nil
}

// AddEntities adds each node in order and stops at the first failure.
// Nodes added before the failure stay in the tree.
func (t *Tree) AddEntities(nodes ...Node) error {
	for _, n := range nodes {
		if _, err := t.AddEntity(n); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) attach(n Node, parent *Entity) error {
	e := n.Base()
	e.self = n
	e.tree = t
	e.id = t.pool.Create()
	e.state = stateLive
	e.since = t.pass
	e.res.owner = e
	if parent != nil {
		e.parent = parent.id
		parent.children = append(parent.children, e.id)
	}
	t.arena.Set(e.id, e)

	if tg, ok := n.(Tagger); ok {
		for _, tag := range tg.Tags() {
			if !e.HasTag(tag) {
				e.tags = append(e.tags, tag)
			}
		}
	}
	for _, tag := range e.tags {
		t.tags.Add(e.id, tag)
	}
	t.interests.Register(e.id)
	for name := range e.staticTable() {
		t.interests.Add(e.id, name)
	}
	for name := range e.overrides {
		t.interests.Add(e.id, name)
	}

	if err := e.res.sync(); err != nil {
		return err
	}
	if a, ok := n.(Adder); ok {
		if err := a.OnAdd(t.ctx); err != nil {
			return err
		}
	}
	// OnAdd may have destroyed the entity.
	if e.state != stateLive {
		return nil
	}
	pending := e.pending
	e.pending = nil
	for _, c := range pending {
		if e.state != stateLive {
			c.Base().destroyDetached()
			continue
		}
		if err := t.attach(c, e); err != nil {
			return fmt.Errorf("child %T: %w", c, err)
		}
	}
	return nil
}

func (t *Tree) destroy(e *Entity) {
	switch e.state {
	case stateDestroying, stateDead:
		return
	case stateDetached:
		e.destroyDetached()
		return
	}
	e.state = stateDestroying

	children := make([]EntityID, len(e.children))
	copy(children, e.children)
	for _, id := range children {
		if c, ok := t.arena.Get(id); ok {
			t.destroy(c)
		}
	}
	for _, c := range e.pending {
		c.Base().destroyDetached()
	}
	e.pending = nil

	t.registry.RemoveAll(e.id)
	e.cancelTimers()
	e.res.release()
	if d, ok := e.self.(Destroyer); ok {
		d.OnDestroy()
	}
	e.state = stateDead
	t.destroyQueue = append(t.destroyQueue, e)
	if t.traversing == 0 {
		t.FlushDestroyQueue()
	}
}

// FlushDestroyQueue unlinks destroyed entities from their parents and the
// root list and retires their handles.
func (t *Tree) FlushDestroyQueue() {
	for _, e := range t.destroyQueue {
		if e.parent.IsZero() {
			t.roots = removeID(t.roots, e.id)
		} else if p, ok := t.arena.Get(e.parent); ok {
			p.children = removeID(p.children, e.id)
		}
		t.pool.Destroy(e.id)
	}
	t.destroyQueue = t.destroyQueue[:0]
}

// Lookup resolves a handle to its live node.
func (t *Tree) Lookup(id EntityID) (Node, bool) {
	e, ok := t.arena.Get(id)
	if !ok || e.state != stateLive {
		return nil, false
	}
	return e.self, true
}

// Resolve returns the handler a live entity registered for name. Instance
// overrides win over static handlers.
func (t *Tree) Resolve(id EntityID, name string) (event.Handler, bool) {
	e, ok := t.arena.Get(id)
	if !ok || e.state != stateLive {
		return nil, false
	}
	return e.handler(name)
}

// OwnerOf returns the live entity that owns body.
func (t *Tree) OwnerOf(body Body) (Node, bool) {
	id, ok := t.bodies.owner[body]
	if !ok {
		return nil, false
	}
	return t.Lookup(id)
}

// GetTagged returns the live entities carrying tag, in registration order.
// The result is a snapshot.
func (t *Tree) GetTagged(tag string) []Node {
	ids := t.tags.Snapshot(tag)
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := t.Lookup(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of live entities at any depth.
func (t *Tree) Len() int { return t.arena.Len() }

// Roots returns the live root entities in insertion order.
func (t *Tree) Roots() []Node {
	out := make([]Node, 0, len(t.roots))
	for _, id := range t.roots {
		if n, ok := t.Lookup(id); ok {
			out = append(out, n)
		}
	}
	return out
}

// Each visits every live entity depth-first, parents before children.
func (t *Tree) Each(fn func(Node)) {
	t.walk(func(e *Entity) { fn(e.self) })
}

// Tick calls OnTick on every live entity, parents before children.
func (t *Tree) Tick(dt time.Duration) {
	t.walk(func(e *Entity) {
		if tk, ok := e.self.(Ticker); ok {
			tk.OnTick(dt)
		}
	})
}

// Render calls OnRender on every live entity. It runs while paused.
func (t *Tree) Render() {
	t.walk(func(e *Entity) {
		if r, ok := e.self.(Renderer); ok {
			r.OnRender()
		}
	})
}

// AdvanceTimers counts every pending wait down by dt of simulated time and
// fires the ones that came due.
func (t *Tree) AdvanceTimers(dt time.Duration) {
	t.walk(func(e *Entity) { e.advanceTimers(dt) })
}

// Pause broadcasts OnPause.
func (t *Tree) Pause() {
	t.walk(func(e *Entity) {
		if p, ok := e.self.(Pauser); ok {
			p.OnPause()
		}
	})
}

// Unpause broadcasts OnUnpause.
func (t *Tree) Unpause() {
	t.walk(func(e *Entity) {
		if u, ok := e.self.(Unpauser); ok {
			u.OnUnpause()
		}
	})
}

// Teardown destroys every root, releasing every owned resource once.
func (t *Tree) Teardown() {
	roots := make([]EntityID, len(t.roots))
	copy(roots, t.roots)
	for i := len(roots) - 1; i >= 0; i-- {
		if e, ok := t.arena.Get(roots[i]); ok {
			t.destroy(e)
		}
	}
	t.FlushDestroyQueue()
}

// walk visits a snapshot of the live tree depth-first. Each entity's child
// list is copied when the entity is visited; entities attached after the
// walk began are skipped.
func (t *Tree) walk(fn func(e *Entity)) {
	t.pass++
	pass := t.pass
	t.traversing++
	roots := make([]EntityID, len(t.roots))
	copy(roots, t.roots)
	for _, id := range roots {
		t.visit(id, pass, fn)
	}
	t.traversing--
	if t.traversing == 0 {
		t.FlushDestroyQueue()
	}
}

func (t *Tree) visit(id EntityID, pass uint64, fn func(e *Entity)) {
	e, ok := t.arena.Get(id)
	if !ok || e.state != stateLive || e.since >= pass {
		return
	}
	fn(e)
	if e.state != stateLive || len(e.children) == 0 {
		return
	}
	children := make([]EntityID, len(e.children))
	copy(children, e.children)
	for _, c := range children {
		t.visit(c, pass, fn)
	}
}

// bodyIndex maps physics bodies to the entity that owns them so contact
// callbacks can be routed back to entities.
type bodyIndex struct {
	owner map[Body]EntityID
	byID  map[EntityID][]Body
}

func newBodyIndex() *bodyIndex {
	return &bodyIndex{
		owner: make(map[Body]EntityID),
		byID:  make(map[EntityID][]Body),
	}
}

func (x *bodyIndex) set(b Body, id EntityID) {
	x.owner[b] = id
	x.byID[id] = append(x.byID[id], b)
}

func (x *bodyIndex) Remove(id EntityID) {
	for _, b := range x.byID[id] {
		delete(x.owner, b)
	}
	delete(x.byID, id)
}
