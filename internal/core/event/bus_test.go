package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableResolver resolves handlers from per-target tables; absent targets
// count as destroyed.
type tableResolver map[int]Table

func (r tableResolver) Resolve(id int, name string) (Handler, bool) {
	tbl, ok := r[id]
	if !ok {
		return nil, false
	}
	h, ok := tbl[name]
	return h, ok
}

func newTestBus(tables tableResolver) *Bus[int] {
	in := NewInterests[int]()
	for id := 0; id < len(tables); id++ {
		for name := range tables[id] {
			in.Add(id, name)
		}
	}
	return NewBus[int](in, tables)
}

type countObserver struct{ calls map[string]int }

func (o *countObserver) OnDispatch(name string, delivered int) { o.calls[name] += delivered }

func TestDispatchRegistrationOrder(t *testing.T) {
	var order []int
	rec := func(id int) Handler { return func(Event) { order = append(order, id) } }
	bus := newTestBus(tableResolver{
		0: {"tick": rec(0)},
		1: {"other": rec(1)},
		2: {"tick": rec(2)},
	})

	assert.Equal(t, 2, bus.Dispatch(Named("tick")))
	assert.Equal(t, []int{0, 2}, order)
	assert.Zero(t, bus.Dispatch(Named("unbound")))
}

func TestDispatchIsReentrantDepthFirst(t *testing.T) {
	var order []string
	var bus *Bus[int]
	tables := tableResolver{
		0: {
			"outer": func(Event) {
				order = append(order, "0.outer")
				bus.Dispatch(Named("inner"))
			},
			"inner": func(Event) { order = append(order, "0.inner") },
		},
		1: {
			"outer": func(Event) { order = append(order, "1.outer") },
			"inner": func(Event) { order = append(order, "1.inner") },
		},
	}
	bus = newTestBus(tables)

	bus.Dispatch(Named("outer"))
	assert.Equal(t, []string{"0.outer", "0.inner", "1.inner", "1.outer"}, order)
}

func TestDispatchSkipsTargetsGoneMidDispatch(t *testing.T) {
	calls := 0
	tables := tableResolver{}
	tables[0] = Table{"hit": func(Event) { delete(tables, 1) }}
	tables[1] = Table{"hit": func(Event) { calls++ }}
	bus := newTestBus(tables)

	assert.Equal(t, 1, bus.Dispatch(Named("hit")))
	assert.Zero(t, calls)
}

func TestDispatchTo(t *testing.T) {
	var got []any
	bus := newTestBus(tableResolver{
		0: {"impact": On(func(m Message) { got = append(got, m.Data["speed"]) })},
		1: {},
	})

	assert.True(t, bus.DispatchTo(0, Message{Name: "impact", Data: map[string]any{"speed": 3.5}}))
	assert.False(t, bus.DispatchTo(1, Named("impact")))
	assert.False(t, bus.DispatchTo(7, Named("impact")))
	assert.Equal(t, []any{3.5}, got)
}

func TestDispatchAfterUsesSimulatedTime(t *testing.T) {
	var order []string
	tables := tableResolver{0: {
		"a": func(Event) { order = append(order, "a") },
		"b": func(Event) { order = append(order, "b") },
		"c": func(Event) { order = append(order, "c") },
	}}
	bus := newTestBus(tables)

	bus.DispatchAfter(30*time.Millisecond, Named("b"))
	bus.DispatchAfter(20*time.Millisecond, Named("a"))
	bus.DispatchAfter(20*time.Millisecond, Named("c"))
	require.Equal(t, 3, bus.Pending())

	bus.Advance(10 * time.Millisecond)
	assert.Empty(t, order)
	bus.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "c", "b"}, order)
	assert.Zero(t, bus.Pending())
}

func TestDelayedScheduledByHandlerWaits(t *testing.T) {
	fired := 0
	var bus *Bus[int]
	tables := tableResolver{0: {
		"ping": func(Event) {
			fired++
			bus.DispatchAfter(0, Named("ping"))
		},
	}}
	bus = newTestBus(tables)

	bus.DispatchAfter(0, Named("ping"))
	bus.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, bus.Pending())
	bus.ClearDelayed()
	bus.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestObserverCountsDeliveries(t *testing.T) {
	obs := &countObserver{calls: map[string]int{}}
	bus := newTestBus(tableResolver{
		0: {"x": func(Event) {}},
		1: {"x": func(Event) {}},
	})
	bus.SetObserver(obs)
	bus.Dispatch(Named("x"))
	bus.Dispatch(Named("y"))
	assert.Equal(t, map[string]int{"x": 2, "y": 0}, obs.calls)
}

func TestInterestsRemove(t *testing.T) {
	in := NewInterests[int]()
	in.Add(1, "a")
	in.Add(1, "a")
	in.Add(2, "a")
	in.Add(1, "b")
	snap := in.Targets("a")

	assert.Equal(t, 2, in.Count("a"))
	in.Drop(1, "a")
	assert.False(t, in.Interested(1, "a"))
	assert.True(t, in.Interested(1, "b"))
	in.Remove(1)
	assert.Zero(t, in.Count("b"))
	assert.Equal(t, []int{2}, in.Targets("a"))
	assert.Equal(t, []int{1, 2}, snap)
}

func TestInterestsOrderByRegistration(t *testing.T) {
	in := NewInterests[int]()
	in.Register(1)
	in.Register(2)
	in.Register(3)
	in.Add(3, "a")
	in.Add(2, "a")
	in.Add(1, "a")
	assert.Equal(t, []int{1, 2, 3}, in.Targets("a"))

	in.Drop(2, "a")
	in.Add(2, "a")
	assert.Equal(t, []int{1, 2, 3}, in.Targets("a"))
}
