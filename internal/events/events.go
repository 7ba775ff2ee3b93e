// Package events defines the domain events carried by the simulation bus.
// Each event's Type doubles as the handler name entities declare in their
// handler tables.
package events

import (
	"github.com/pinsim/pinsim/internal/core/ecs"
)

// Handler names.
const (
	TypeKeyDown      = "keyDown"
	TypeKeyUp        = "keyUp"
	TypeMouseDown    = "mouseDown"
	TypeMouseUp      = "mouseUp"
	TypeClick        = "click"
	TypeRightClick   = "rightClick"
	TypeButtonDown   = "buttonDown"
	TypeButtonUp     = "buttonUp"
	TypeBlur         = "blur"
	TypeFocus        = "focus"
	TypeBeginContact = "beginContact"
	TypeEndContact   = "endContact"
	TypeImpact       = "impact"
	TypePlaySound    = "playSound"
	TypeScore        = "score"
	TypeGameStart    = "gameStart"
	TypeNewBall      = "newBall"
	TypeDrain        = "drain"
	TypeGameOver     = "gameOver"
	TypeBumperHit    = "bumperHit"
	TypeTogglePause  = "togglePause"
	TypeSlowMo       = "slowMo"
)

// KeyDown is sent once per physical press; terminal auto-repeat is
// filtered out by the input manager.
type KeyDown struct {
	Key string
	// Action is the bound action name, empty when the key is unbound.
	Action string
}

func (KeyDown) Type() string { return TypeKeyDown }

func (e KeyDown) Fields() map[string]any {
	return map[string]any{"key": e.Key, "action": e.Action}
}

type KeyUp struct {
	Key    string
	Action string
}

func (KeyUp) Type() string { return TypeKeyUp }

func (e KeyUp) Fields() map[string]any {
	return map[string]any{"key": e.Key, "action": e.Action}
}

type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
)

type MouseDown struct {
	Button MouseButton
	X, Y   int
}

func (MouseDown) Type() string { return TypeMouseDown }

type MouseUp struct {
	Button MouseButton
	X, Y   int
}

func (MouseUp) Type() string { return TypeMouseUp }

// Click follows a left-button release.
type Click struct{ X, Y int }

func (Click) Type() string { return TypeClick }

// RightClick follows a right-button release.
type RightClick struct{ X, Y int }

func (RightClick) Type() string { return TypeRightClick }

type ButtonDown struct{ Button int }

func (ButtonDown) Type() string { return TypeButtonDown }

type ButtonUp struct{ Button int }

func (ButtonUp) Type() string { return TypeButtonUp }

// Blur is sent when the input source loses focus.
type Blur struct{}

func (Blur) Type() string { return TypeBlur }

type Focus struct{}

func (Focus) Type() string { return TypeFocus }

// BeginContact is delivered to each of the two owners of touching bodies;
// Other is the entity on the far side of the contact, nil when the other
// body has no owner.
type BeginContact struct {
	Other ecs.Node
	Speed float64
}

func (BeginContact) Type() string { return TypeBeginContact }

func (e BeginContact) Fields() map[string]any {
	return map[string]any{"speed": e.Speed, "other": otherTags(e.Other)}
}

type EndContact struct {
	Other ecs.Node
}

func (EndContact) Type() string { return TypeEndContact }

func (e EndContact) Fields() map[string]any {
	return map[string]any{"other": otherTags(e.Other)}
}

// Impact accompanies a BeginContact whose approach speed was non-zero.
type Impact struct {
	Other ecs.Node
	Speed float64
}

func (Impact) Type() string { return TypeImpact }

func (e Impact) Fields() map[string]any {
	return map[string]any{"speed": e.Speed, "other": otherTags(e.Other)}
}

func otherTags(n ecs.Node) []string {
	if n == nil {
		return nil
	}
	return n.Base().TagList()
}

// PlaySound asks the soundboard for a one-shot sound. Zero Gain and Speed
// mean 1.
type PlaySound struct {
	Sound string
	Gain  float64
	Pan   float64
	Speed float64
}

func (PlaySound) Type() string { return TypePlaySound }

func (e PlaySound) Fields() map[string]any {
	return map[string]any{"sound": e.Sound, "gain": e.Gain, "pan": e.Pan, "speed": e.Speed}
}

type Score struct{ Points int }

func (Score) Type() string { return TypeScore }

func (e Score) Fields() map[string]any { return map[string]any{"points": e.Points} }

type GameStart struct{}

func (GameStart) Type() string { return TypeGameStart }

// NewBall requests a fresh ball at the launch position.
type NewBall struct{ NoSound bool }

func (NewBall) Type() string { return TypeNewBall }

func (e NewBall) Fields() map[string]any { return map[string]any{"no_sound": e.NoSound} }

// Drain reports that a ball left the playfield. The drain destroys the
// ball before dispatching.
type Drain struct{}

func (Drain) Type() string { return TypeDrain }

type GameOver struct{}

func (GameOver) Type() string { return TypeGameOver }

type BumperHit struct {
	Bumper ecs.Node
	Ball   ecs.Node
}

func (BumperHit) Type() string { return TypeBumperHit }

// TogglePause flips the pause state.
type TogglePause struct{}

func (TogglePause) Type() string { return TypeTogglePause }

// SlowMo sets the slow-motion factor.
type SlowMo struct{ Factor float64 }

func (SlowMo) Type() string { return TypeSlowMo }

func (e SlowMo) Fields() map[string]any { return map[string]any{"factor": e.Factor} }
