package event

// Event is a tagged union keyed by Type. The type name doubles as the
// handler name entities declare interest in.
type Event interface {
	Type() string
}

// Handler receives one dispatched event.
type Handler func(ev Event)

// Table maps event type names to handlers. An entity's static table comes
// from its behaviour; instance overrides live in a second Table.
type Table map[string]Handler

// On adapts a typed callback to a Handler. Events of any other concrete
// type are ignored.
func On[T Event](fn func(T)) Handler {
	return func(ev Event) {
		if t, ok := ev.(T); ok {
			fn(t)
		}
	}
}

// Fielder is implemented by events that expose their payload as loose
// fields. Script bridges use it to hand events to Lua.
type Fielder interface {
	Fields() map[string]any
}

// Message is a loosely typed event, used for events raised by scripts or
// ones that carry no payload.
type Message struct {
	Name string
	Data map[string]any
}

func (m Message) Type() string { return m.Name }

func (m Message) Fields() map[string]any { return m.Data }

// Named returns a payload-free event of the given type.
func Named(name string) Message {
	return Message{Name: name}
}
