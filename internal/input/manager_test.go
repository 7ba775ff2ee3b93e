package input

import (
	"testing"

	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ got []event.Event }

func (r *recorder) Dispatch(ev event.Event) { r.got = append(r.got, ev) }

func (r *recorder) types() []string {
	out := make([]string, len(r.got))
	for i, ev := range r.got {
		out[i] = ev.Type()
	}
	return out
}

func TestKeyRepeatIsFiltered(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, map[string]string{"z": "leftFlipper"})

	m.KeyDown("z")
	m.KeyDown("z")
	m.KeyDown("z")
	assert.True(t, m.KeyIsDown("z"))
	assert.True(t, m.ActionIsDown("leftFlipper"))
	assert.True(t, m.AnyKeyIsDown("x", "z"))
	assert.False(t, m.AnyKeyIsDown("x", "y"))

	m.KeyUp("z")
	m.KeyUp("z")
	assert.False(t, m.KeyIsDown("z"))
	assert.Equal(t, []string{"keyDown", "leftFlipperDown", "keyUp", "leftFlipperUp"}, rec.types())
	assert.Equal(t, events.KeyDown{Key: "z", Action: "leftFlipper"}, rec.got[0])
}

func TestUnboundKeyHasNoAction(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)
	m.KeyDown("q")
	require.Len(t, rec.got, 1)
	assert.Equal(t, events.KeyDown{Key: "q"}, rec.got[0])

	m.Bind("q", "quit")
	assert.Equal(t, "quit", m.Action("q"))
	m.Bind("q", "")
	assert.Empty(t, m.Action("q"))
}

func TestMouseClickFollowsRelease(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)

	m.MouseDown(events.MouseLeft, 3, 4)
	assert.True(t, m.MouseIsDown(events.MouseLeft))
	m.MouseUp(events.MouseLeft, 5, 6)
	m.MouseDown(events.MouseRight, 1, 1)
	m.MouseUp(events.MouseRight, 1, 1)
	m.MouseUp(events.MouseMiddle, 0, 0)

	assert.Equal(t, []string{"mouseDown", "mouseUp", "click", "mouseDown", "mouseUp", "rightClick", "mouseUp"}, rec.types())
	x, y := m.MousePosition()
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
	assert.False(t, m.MouseIsDown(events.MouseButton(9)))
}

func TestGamepadEdgesAndDeadZone(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)

	v, err := m.Axis(LeftX)
	require.NoError(t, err)
	assert.Zero(t, v)

	m.UpdateGamepad(&Gamepad{Buttons: []float64{1, 0}, Axes: [4]float64{0.1, 0, 0.95, 0}})
	m.UpdateGamepad(&Gamepad{Buttons: []float64{1, 0}, Axes: [4]float64{0.1, 0, 0.95, 0}})
	m.UpdateGamepad(&Gamepad{Buttons: []float64{0, 0.8}})
	assert.Equal(t, []string{"buttonDown", "buttonUp", "buttonDown"}, rec.types())
	assert.Equal(t, events.ButtonDown{Button: 1}, rec.got[2])
	assert.True(t, m.UsingGamepad())

	m.UpdateGamepad(&Gamepad{Axes: [4]float64{0.1, 0, 0.95, 0}})
	lx, err := m.Axis(LeftX)
	require.NoError(t, err)
	assert.Zero(t, lx)
	rx, err := m.Axis(RightX)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rx, 1e-9)

	m.UpdateGamepad(&Gamepad{Axes: [4]float64{0, -0.575, 0, 0}})
	ly, err := m.Axis(LeftY)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, ly, 1e-9)

	b, err := m.Button(0)
	require.NoError(t, err)
	assert.Zero(t, b)

	m.MouseMove(1, 1)
	assert.False(t, m.UsingGamepad())
}

func TestUnknownAxisAndButtonFailFast(t *testing.T) {
	m := NewManager(&recorder{}, nil)
	_, err := m.Axis(Axis(7))
	assert.ErrorIs(t, err, ErrUnknownAxis)
	_, err = m.Button(GamepadButtons)
	assert.ErrorIs(t, err, ErrUnknownButton)
	_, err = m.Button(-1)
	assert.ErrorIs(t, err, ErrUnknownButton)
}

func TestBlurReleasesHeldInput(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)
	m.KeyDown("b")
	m.KeyDown("a")
	m.MouseDown(events.MouseLeft, 0, 0)
	rec.got = nil

	m.Blur()
	m.Blur()
	assert.Equal(t, []string{"keyUp", "keyUp", "mouseUp", "blur"}, rec.types())
	assert.Equal(t, events.KeyUp{Key: "a"}, rec.got[0])
	assert.False(t, m.Focused())
	assert.False(t, m.AnyKeyIsDown("a", "b"))

	m.Focus()
	m.Focus()
	assert.Equal(t, "focus", rec.got[len(rec.got)-1].Type())
	assert.True(t, m.Focused())
}

func TestDrainAppliesQueuedSamples(t *testing.T) {
	rec := &recorder{}
	m := NewManager(rec, nil)
	ch := make(chan Raw, 8)
	ch <- Raw{Kind: RawKeyDown, Key: "x"}
	ch <- Raw{Kind: RawResize}
	ch <- Raw{Kind: RawKeyUp, Key: "x"}

	quit, resized := m.Drain(ch)
	assert.False(t, quit)
	assert.True(t, resized)
	assert.Equal(t, []string{"keyDown", "keyUp"}, rec.types())

	ch <- Raw{Kind: RawQuit}
	quit, _ = m.Drain(ch)
	assert.True(t, quit)

	close(ch)
	quit, _ = m.Drain(ch)
	assert.True(t, quit)
}
