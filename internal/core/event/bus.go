package event

import (
	"sort"
	"time"
)

// Resolver looks up the handler a live target registered for name. It
// returns false once the target is destroyed, which is what keeps a
// dispatch snapshot from reaching entities killed mid-dispatch.
type Resolver[K comparable] interface {
	Resolve(id K, name string) (Handler, bool)
}

// Observer is told about every synchronous dispatch. Optional.
type Observer interface {
	OnDispatch(name string, delivered int)
}

type delayed struct {
	remaining time.Duration
	seq       uint64
	ev        Event
}

// Bus multicasts events to interested targets.
//
// Dispatch is synchronous and re-entrant: a handler that dispatches runs
// the nested dispatch to completion before the outer one moves on to its
// next target. Delayed events are held until Advance has consumed their
// delay in simulated time, so they freeze with the clock.
type Bus[K comparable] struct {
	interests *Interests[K]
	resolver  Resolver[K]
	observer  Observer

	delayed []delayed
	seq     uint64
}

func NewBus[K comparable](interests *Interests[K], resolver Resolver[K]) *Bus[K] {
	return &Bus[K]{
		interests: interests,
		resolver:  resolver,
		delayed:   make([]delayed, 0, 16),
	}
}

// SetObserver installs a dispatch observer; nil removes it.
func (b *Bus[K]) SetObserver(o Observer) {
	b.observer = o
}

// Dispatch delivers ev to every live target interested in ev.Type(), in
// registration order, and returns how many handlers ran. Targets added
// during the dispatch are not reached by it.
func (b *Bus[K]) Dispatch(ev Event) int {
	name := ev.Type()
	targets := b.interests.Targets(name)
	delivered := 0
	for _, id := range targets {
		h, ok := b.resolver.Resolve(id, name)
		if !ok {
			continue
		}
		h(ev)
		delivered++
	}
	if b.observer != nil {
		b.observer.OnDispatch(name, delivered)
	}
	return delivered
}

// DispatchTo delivers ev to a single target if it is alive and interested.
func (b *Bus[K]) DispatchTo(id K, ev Event) bool {
	name := ev.Type()
	if !b.interests.Interested(id, name) {
		return false
	}
	h, ok := b.resolver.Resolve(id, name)
	if !ok {
		return false
	}
	h(ev)
	return true
}

// DispatchAfter schedules ev for dispatch once d of simulated time has
// passed. A non-positive delay fires on the next Advance.
func (b *Bus[K]) DispatchAfter(d time.Duration, ev Event) {
	b.seq++
	b.delayed = append(b.delayed, delayed{remaining: d, seq: b.seq, ev: ev})
}

// Advance consumes dt of simulated time and dispatches every delayed event
// that came due, earliest first and FIFO among equals. Events scheduled by
// those handlers wait for the next Advance.
func (b *Bus[K]) Advance(dt time.Duration) {
	if len(b.delayed) == 0 {
		return
	}
	var due []delayed
	keep := b.delayed[:0]
	for _, d := range b.delayed {
		d.remaining -= dt
		if d.remaining <= 0 {
			due = append(due, d)
		} else {
			keep = append(keep, d)
		}
	}
	b.delayed = keep
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].remaining != due[j].remaining {
			return due[i].remaining < due[j].remaining
		}
		return due[i].seq < due[j].seq
	})
	for _, d := range due {
		b.Dispatch(d.ev)
	}
}

// Pending returns the number of delayed events not yet dispatched.
func (b *Bus[K]) Pending() int {
	return len(b.delayed)
}

// ClearDelayed drops every delayed event.
func (b *Bus[K]) ClearDelayed() {
	b.delayed = b.delayed[:0]
}
