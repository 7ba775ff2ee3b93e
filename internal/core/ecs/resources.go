package ecs

import (
	"errors"
	"fmt"
)

var ErrNoPhysics = errors.New("ecs: entity owns physics handles but the simulation has no physics")

// Resources is the bundle of collaborator handles an entity owns. Handles
// added before the entity is live are attached when it joins the tree;
// handles added afterwards are attached immediately. Everything is released
// exactly once, on destroy, in dependency order: constraints and springs
// before the bodies they join, then render objects, then disposables.
type Resources struct {
	owner *Entity

	bodies      []Body
	constraints []Constraint
	springs     []Spring
	renders     []RenderObject
	disposables []Disposable

	attached struct {
		bodies, constraints, springs, renders int
	}
	released bool
}

func (r *Resources) Bodies() []Body { return r.bodies }

func (r *Resources) AddBody(b Body) error {
	r.bodies = append(r.bodies, b)
	return r.sync()
}

func (r *Resources) AddConstraint(c Constraint) error {
	r.constraints = append(r.constraints, c)
	return r.sync()
}

func (r *Resources) AddSpring(s Spring) error {
	r.springs = append(r.springs, s)
	return r.sync()
}

func (r *Resources) AddRenderObject(obj RenderObject) {
	r.renders = append(r.renders, obj)
	// Scene.Add cannot fail.
	_ = r.sync()
}

func (r *Resources) AddDisposable(d Disposable) {
	if r.released {
		d.Dispose()
		return
	}
	r.disposables = append(r.disposables, d)
}

// Count returns the total number of owned handles.
func (r *Resources) Count() int {
	return len(r.bodies) + len(r.constraints) + len(r.springs) + len(r.renders) + len(r.disposables)
}

// sync attaches every handle not yet handed to its collaborator. It is a
// no-op until the owner is live in a tree.
func (r *Resources) sync() error {
	e := r.owner
	if e == nil || e.state != stateLive || r.released {
		return nil
	}
	ctx := e.tree.ctx
	var phys Physics
	var scene Scene
	if ctx != nil {
		phys = ctx.Physics()
		scene = ctx.Scene()
	}

	if len(r.bodies)+len(r.constraints)+len(r.springs) > r.attached.bodies+r.attached.constraints+r.attached.springs && phys == nil {
		return ErrNoPhysics
	}
	for ; r.attached.bodies < len(r.bodies); r.attached.bodies++ {
		b := r.bodies[r.attached.bodies]
		if err := phys.AddBody(b); err != nil {
			r.bodies = append(r.bodies[:r.attached.bodies], r.bodies[r.attached.bodies+1:]...)
			return fmt.Errorf("add body: %w", err)
		}
		e.tree.bodies.set(b, e.id)
	}
	for ; r.attached.constraints < len(r.constraints); r.attached.constraints++ {
		c := r.constraints[r.attached.constraints]
		if err := phys.AddConstraint(c); err != nil {
			r.constraints = append(r.constraints[:r.attached.constraints], r.constraints[r.attached.constraints+1:]...)
			return fmt.Errorf("add constraint: %w", err)
		}
	}
	for ; r.attached.springs < len(r.springs); r.attached.springs++ {
		s := r.springs[r.attached.springs]
		if err := phys.AddSpring(s); err != nil {
			r.springs = append(r.springs[:r.attached.springs], r.springs[r.attached.springs+1:]...)
			return fmt.Errorf("add spring: %w", err)
		}
	}
	if scene != nil {
		for ; r.attached.renders < len(r.renders); r.attached.renders++ {
			scene.Add(r.renders[r.attached.renders])
		}
	}
	return nil
}

// release hands every attached handle back to its collaborator and
// disposes every disposable. Safe to call more than once.
func (r *Resources) release() {
	if r.released {
		return
	}
	r.released = true

	var phys Physics
	var scene Scene
	if e := r.owner; e != nil && e.tree != nil && e.tree.ctx != nil {
		phys = e.tree.ctx.Physics()
		scene = e.tree.ctx.Scene()
	}
	if phys != nil {
		for _, c := range r.constraints[:r.attached.constraints] {
			phys.RemoveConstraint(c)
		}
		for _, s := range r.springs[:r.attached.springs] {
			phys.RemoveSpring(s)
		}
		for _, b := range r.bodies[:r.attached.bodies] {
			phys.RemoveBody(b)
		}
	}
	if scene != nil {
		for _, obj := range r.renders[:r.attached.renders] {
			scene.Remove(obj)
		}
	}
	for _, d := range r.disposables {
		d.Dispose()
	}
	r.disposables = nil
}
