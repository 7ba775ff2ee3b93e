package input

import (
	"context"

	"github.com/pinsim/pinsim/internal/events"
)

type RawKind uint8

const (
	RawKeyDown RawKind = iota + 1
	RawKeyUp
	RawMouseMove
	RawMouseDown
	RawMouseUp
	RawGamepad
	RawBlur
	RawFocus
	RawResize
	RawQuit
)

// Raw is one device sample as delivered by a Source.
type Raw struct {
	Kind   RawKind
	Key    string
	Button events.MouseButton
	X, Y   int
	Pad    *Gamepad
}

// Source is an input device. Run pushes samples into out until ctx is
// done or the device closes, then returns.
type Source interface {
	Run(ctx context.Context, out chan<- Raw) error
}

// Drain applies every sample waiting in ch without blocking and reports
// the quit and resize samples it saw, which the manager does not handle.
func (m *Manager) Drain(ch <-chan Raw) (quit, resized bool) {
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return true, resized
			}
			switch r.Kind {
			case RawQuit:
				quit = true
			case RawResize:
				resized = true
			default:
				m.Apply(r)
			}
		default:
			return quit, resized
		}
	}
}
