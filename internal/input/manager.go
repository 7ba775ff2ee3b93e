// Package input turns raw device samples into dispatched events and answers
// raw state queries such as KeyIsDown. Devices push Raw samples from their
// own goroutine through a channel; the Manager only ever runs on the
// simulation loop.
package input

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/events"
)

var (
	ErrUnknownAxis   = errors.New("input: unknown axis")
	ErrUnknownButton = errors.New("input: unknown button")
)

// Gamepad dead zone: stick magnitudes below DeadZoneMin read as zero and
// magnitudes above DeadZoneMax read as full deflection.
const (
	DeadZoneMin = 0.2
	DeadZoneMax = 0.95
)

type Axis int

const (
	LeftX Axis = iota
	LeftY
	RightX
	RightY
)

func (a Axis) String() string {
	switch a {
	case LeftX:
		return "left-x"
	case LeftY:
		return "left-y"
	case RightX:
		return "right-x"
	case RightY:
		return "right-y"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// GamepadButtons is the button count of a standard-mapping gamepad.
const GamepadButtons = 17

// Dispatcher receives the events produced by the manager; the game's bus
// satisfies it.
type Dispatcher interface {
	Dispatch(ev event.Event)
}

// Manager tracks key, mouse and gamepad state. A key that is already down
// does not produce a second keyDown, which filters terminal auto-repeat.
type Manager struct {
	out      Dispatcher
	bindings map[string]string

	keys         map[string]bool
	mouse        [3]bool
	mouseX       int
	mouseY       int
	pad          Gamepad
	hasPad       bool
	lastButtons  []bool
	usingGamepad bool
	focused      bool
}

// Gamepad is one polled gamepad sample. Buttons holds analog values in
// [0,1]; a button counts as pressed above one half.
type Gamepad struct {
	Buttons []float64
	Axes    [4]float64
}

func NewManager(out Dispatcher, bindings map[string]string) *Manager {
	m := &Manager{
		out:      out,
		bindings: make(map[string]string, len(bindings)),
		keys:     make(map[string]bool),
		focused:  true,
	}
	for k, a := range bindings {
		m.bindings[k] = a
	}
	return m
}

// Bind maps a key name to an action. An empty action removes the binding.
func (m *Manager) Bind(key, action string) {
	if action == "" {
		delete(m.bindings, key)
		return
	}
	m.bindings[key] = action
}

func (m *Manager) Action(key string) string { return m.bindings[key] }

// KeyIsDown reports whether key is currently held.
func (m *Manager) KeyIsDown(key string) bool { return m.keys[key] }

func (m *Manager) AnyKeyIsDown(keys ...string) bool {
	for _, k := range keys {
		if m.keys[k] {
			return true
		}
	}
	return false
}

// ActionIsDown reports whether any key bound to action is held.
func (m *Manager) ActionIsDown(action string) bool {
	for k, a := range m.bindings {
		if a == action && m.keys[k] {
			return true
		}
	}
	return false
}

func (m *Manager) MouseIsDown(b events.MouseButton) bool {
	if b < 0 || int(b) >= len(m.mouse) {
		return false
	}
	return m.mouse[b]
}

func (m *Manager) MousePosition() (x, y int) { return m.mouseX, m.mouseY }

// UsingGamepad reports whether the gamepad was the last device used.
func (m *Manager) UsingGamepad() bool { return m.usingGamepad }

func (m *Manager) Focused() bool { return m.focused }

func (m *Manager) KeyDown(key string) {
	was := m.keys[key]
	m.keys[key] = true
	if was {
		return
	}
	action := m.bindings[key]
	m.out.Dispatch(events.KeyDown{Key: key, Action: action})
	if action != "" {
		m.out.Dispatch(event.Named(action + "Down"))
	}
}

func (m *Manager) KeyUp(key string) {
	if !m.keys[key] {
		return
	}
	m.keys[key] = false
	action := m.bindings[key]
	m.out.Dispatch(events.KeyUp{Key: key, Action: action})
	if action != "" {
		m.out.Dispatch(event.Named(action + "Up"))
	}
}

func (m *Manager) MouseMove(x, y int) {
	m.usingGamepad = false
	m.mouseX, m.mouseY = x, y
}

func (m *Manager) MouseDown(b events.MouseButton, x, y int) {
	m.MouseMove(x, y)
	if b >= 0 && int(b) < len(m.mouse) {
		m.mouse[b] = true
	}
	m.out.Dispatch(events.MouseDown{Button: b, X: x, Y: y})
}

// MouseUp releases b and, since a terminal reports no separate click,
// follows it with click or rightClick.
func (m *Manager) MouseUp(b events.MouseButton, x, y int) {
	m.MouseMove(x, y)
	wasDown := b >= 0 && int(b) < len(m.mouse) && m.mouse[b]
	if b >= 0 && int(b) < len(m.mouse) {
		m.mouse[b] = false
	}
	m.out.Dispatch(events.MouseUp{Button: b, X: x, Y: y})
	if !wasDown {
		return
	}
	switch b {
	case events.MouseLeft:
		m.out.Dispatch(events.Click{X: x, Y: y})
	case events.MouseRight:
		m.out.Dispatch(events.RightClick{X: x, Y: y})
	}
}

// Blur releases every held key and mouse button, then dispatches blur.
func (m *Manager) Blur() {
	if !m.focused {
		return
	}
	m.Flush()
	m.focused = false
	m.out.Dispatch(events.Blur{})
}

func (m *Manager) Focus() {
	if m.focused {
		return
	}
	m.focused = true
	m.out.Dispatch(events.Focus{})
}

// Flush releases everything held, dispatching the matching up events.
func (m *Manager) Flush() {
	held := make([]string, 0, len(m.keys))
	for k, down := range m.keys {
		if down {
			held = append(held, k)
		}
	}
	sort.Strings(held)
	for _, k := range held {
		m.KeyUp(k)
	}
	for b := range m.mouse {
		if m.mouse[b] {
			m.mouse[b] = false
			m.out.Dispatch(events.MouseUp{Button: events.MouseButton(b), X: m.mouseX, Y: m.mouseY})
		}
	}
	for i, down := range m.lastButtons {
		if down {
			m.out.Dispatch(events.ButtonUp{Button: i})
		}
	}
	m.lastButtons = nil
}

// UpdateGamepad takes a new gamepad sample and dispatches buttonDown and
// buttonUp for every edge since the previous one. A nil sample means no
// gamepad is connected.
func (m *Manager) UpdateGamepad(pad *Gamepad) {
	if pad == nil {
		m.hasPad = false
		m.pad = Gamepad{}
		m.lastButtons = nil
		return
	}
	m.hasPad = true
	m.pad = Gamepad{Buttons: append([]float64(nil), pad.Buttons...), Axes: pad.Axes}
	pressed := make([]bool, len(pad.Buttons))
	for i, v := range pad.Buttons {
		pressed[i] = v > 0.5
	}
	for i := 0; i < max(len(pressed), len(m.lastButtons)); i++ {
		down := i < len(pressed) && pressed[i]
		was := i < len(m.lastButtons) && m.lastButtons[i]
		switch {
		case down && !was:
			m.usingGamepad = true
			m.out.Dispatch(events.ButtonDown{Button: i})
		case !down && was:
			m.out.Dispatch(events.ButtonUp{Button: i})
		}
	}
	m.lastButtons = pressed
}

// Axis returns the dead-zoned value of a stick axis in [-1,1]. The dead
// zone applies to the stick's magnitude, so direction is preserved.
func (m *Manager) Axis(a Axis) (float64, error) {
	var x, y float64
	switch a {
	case LeftX, LeftY:
		x, y = m.pad.Axes[LeftX], m.pad.Axes[LeftY]
	case RightX, RightY:
		x, y = m.pad.Axes[RightX], m.pad.Axes[RightY]
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownAxis, int(a))
	}
	if !m.hasPad {
		return 0, nil
	}
	x, y = deadZone(x, y)
	if a == LeftX || a == RightX {
		return x, nil
	}
	return y, nil
}

func deadZone(x, y float64) (float64, float64) {
	mag := math.Hypot(x, y)
	if mag <= DeadZoneMin {
		return 0, 0
	}
	scaled := math.Min((mag-DeadZoneMin)/(DeadZoneMax-DeadZoneMin), 1)
	return x / mag * scaled, y / mag * scaled
}

// Button returns the analog value of a gamepad button, or 0 with no
// gamepad connected.
func (m *Manager) Button(i int) (float64, error) {
	if i < 0 || i >= GamepadButtons {
		return 0, fmt.Errorf("%w: %d", ErrUnknownButton, i)
	}
	if !m.hasPad || i >= len(m.pad.Buttons) {
		return 0, nil
	}
	return m.pad.Buttons[i], nil
}

// Apply feeds one raw device sample into the manager.
func (m *Manager) Apply(r Raw) {
	switch r.Kind {
	case RawKeyDown:
		m.KeyDown(r.Key)
	case RawKeyUp:
		m.KeyUp(r.Key)
	case RawMouseMove:
		m.MouseMove(r.X, r.Y)
	case RawMouseDown:
		m.MouseDown(r.Button, r.X, r.Y)
	case RawMouseUp:
		m.MouseUp(r.Button, r.X, r.Y)
	case RawGamepad:
		m.UpdateGamepad(r.Pad)
	case RawBlur:
		m.Blur()
	case RawFocus:
		m.Focus()
	}
}
