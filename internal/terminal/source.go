// Package terminal is the tcell backend: an input Source that turns
// terminal events into raw input samples, and a Renderer that draws the
// scene's render objects into character cells.
package terminal

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/input"
	"go.uber.org/zap"
)

// DefaultKeyRelease is how long a key stays down after its last press or
// repeat. Terminals never report releases, so a key is considered released
// once its auto-repeat stops; the default sits above the usual initial
// repeat delay.
const DefaultKeyRelease = 550 * time.Millisecond

// Source reads events from a tcell screen.
type Source struct {
	screen  tcell.Screen
	release time.Duration
	log     *zap.Logger

	held    map[string]time.Time
	buttons tcell.ButtonMask
}

func NewSource(screen tcell.Screen, release time.Duration, log *zap.Logger) *Source {
	if release <= 0 {
		release = DefaultKeyRelease
	}
	return &Source{
		screen:  screen,
		release: release,
		log:     log,
		held:    make(map[string]time.Time),
	}
}

// Run forwards samples to out until ctx is done. It implements
// input.Source.
func (s *Source) Run(ctx context.Context, out chan<- input.Raw) error {
	evs := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	go s.screen.ChannelEvents(evs, quit)
	defer close(quit)

	tick := time.NewTicker(s.release / 8)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-evs:
			if !ok {
				return nil
			}
			for _, r := range s.translate(ev, time.Now()) {
				select {
				case out <- r:
				case <-ctx.Done():
					return nil
				}
			}
		case now := <-tick.C:
			for _, r := range s.expire(now) {
				select {
				case out <- r:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

func (s *Source) translate(ev tcell.Event, now time.Time) []input.Raw {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return []input.Raw{{Kind: input.RawQuit}}
		}
		name := KeyName(ev)
		_, down := s.held[name]
		s.held[name] = now
		if down {
			return nil
		}
		return []input.Raw{{Kind: input.RawKeyDown, Key: name}}
	case *tcell.EventMouse:
		return s.mouse(ev)
	case *tcell.EventFocus:
		if ev.Focused {
			return []input.Raw{{Kind: input.RawFocus}}
		}
		out := s.releaseAll()
		return append(out, input.Raw{Kind: input.RawBlur})
	case *tcell.EventResize:
		return []input.Raw{{Kind: input.RawResize}}
	}
	return nil
}

func (s *Source) mouse(ev *tcell.EventMouse) []input.Raw {
	x, y := ev.Position()
	btns := ev.Buttons() & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	changed := btns ^ s.buttons
	s.buttons = btns
	if changed == 0 {
		return []input.Raw{{Kind: input.RawMouseMove, X: x, Y: y}}
	}
	var out []input.Raw
	for _, m := range []struct {
		mask tcell.ButtonMask
		btn  events.MouseButton
	}{
		{tcell.Button1, events.MouseLeft},
		{tcell.Button3, events.MouseMiddle},
		{tcell.Button2, events.MouseRight},
	} {
		if changed&m.mask == 0 {
			continue
		}
		kind := input.RawMouseUp
		if btns&m.mask != 0 {
			kind = input.RawMouseDown
		}
		out = append(out, input.Raw{Kind: kind, Button: m.btn, X: x, Y: y})
	}
	return out
}

// expire releases, in key-name order, every key whose repeats have stopped.
func (s *Source) expire(now time.Time) []input.Raw {
	var out []input.Raw
	for _, name := range slices.Sorted(maps.Keys(s.held)) {
		if now.Sub(s.held[name]) >= s.release {
			delete(s.held, name)
			out = append(out, input.Raw{Kind: input.RawKeyUp, Key: name})
		}
	}
	return out
}

func (s *Source) releaseAll() []input.Raw {
	out := make([]input.Raw, 0, len(s.held))
	for _, name := range slices.Sorted(maps.Keys(s.held)) {
		out = append(out, input.Raw{Kind: input.RawKeyUp, Key: name})
	}
	clear(s.held)
	return out
}

// KeyName is the binding name of a key event: the lower-cased rune for
// printable keys ("space" for the space bar) and the lower-cased tcell name
// for the rest ("left", "enter", "esc").
func KeyName(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return "space"
		}
		return strings.ToLower(string(ev.Rune()))
	}
	if name, ok := tcell.KeyNames[ev.Key()]; ok {
		return strings.ToLower(name)
	}
	return strings.ToLower(ev.Name())
}
