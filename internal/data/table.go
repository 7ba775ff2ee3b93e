package data

import (
	"errors"
	"fmt"
	"os"

	"github.com/pinsim/pinsim/internal/physics"
	"gopkg.in/yaml.v3"
)

var ErrLayout = errors.New("data: invalid table layout")

// Point is an [x, y] pair in table units. The y axis points down the
// playfield toward the drain.
type Point [2]float64

func (p Point) Vec() physics.Vec { return physics.V(p[0], p[1]) }

// TableLayout describes a playfield: its size and every fixed element.
type TableLayout struct {
	Name      string        `yaml:"name"`
	Size      Point         `yaml:"size"`
	Gravity   float64       `yaml:"gravity"`
	Ball      BallDef       `yaml:"ball"`
	Walls     []WallDef     `yaml:"walls"`
	Bumpers   []BumperDef   `yaml:"bumpers"`
	Posts     []PostDef     `yaml:"posts"`
	Flippers  []FlipperDef  `yaml:"flippers"`
	Pendulums []PendulumDef `yaml:"pendulums"`
	Plunger   PlungerDef    `yaml:"plunger"`
	Drain     WallDef       `yaml:"drain"`
}

type BallDef struct {
	Start       Point   `yaml:"start"`
	Radius      float64 `yaml:"radius"`
	Mass        float64 `yaml:"mass"`
	Restitution float64 `yaml:"restitution"`
	MaxSpeed    float64 `yaml:"max_speed"` // speed at which the roll sound peaks
}

// WallDef is a chain of capsules through Points. Two points make one wall.
type WallDef struct {
	Points      []Point `yaml:"points"`
	Radius      float64 `yaml:"radius"`
	Restitution float64 `yaml:"restitution"`
	Sound       string  `yaml:"sound"`
}

type BumperDef struct {
	At       Point   `yaml:"at"`
	Radius   float64 `yaml:"radius"`
	Points   int     `yaml:"points"`
	Strength float64 `yaml:"strength"` // kick impulse
	Sound    string  `yaml:"sound"`
}

type PostDef struct {
	At     Point   `yaml:"at"`
	Radius float64 `yaml:"radius"`
	Sound  string  `yaml:"sound"`
}

type FlipperDef struct {
	Side   string  `yaml:"side"` // left or right
	Pivot  Point   `yaml:"pivot"`
	Length float64 `yaml:"length"`
	Radius float64 `yaml:"radius"`
	// Angles in degrees, measured for a left flipper; right flippers mirror
	// them.
	DownAngle float64 `yaml:"down_angle"`
	UpAngle   float64 `yaml:"up_angle"`
	Speed     float64 `yaml:"speed"` // degrees per second
	Action    string  `yaml:"action"`
	Sound     string  `yaml:"sound"`
}

// PendulumDef is a swinging target: a bob held at Length from a fixed pivot.
type PendulumDef struct {
	Pivot  Point   `yaml:"pivot"`
	Length float64 `yaml:"length"`
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
	Points int     `yaml:"points"`
}

// PlungerDef is the launcher: a spring-loaded block in the shooter lane.
type PlungerDef struct {
	At        Point   `yaml:"at"`
	Radius    float64 `yaml:"radius"`
	Mass      float64 `yaml:"mass"`
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
	Pull      float64 `yaml:"pull"` // force applied while the launch action is held
	Action    string  `yaml:"action"`
	Sound     string  `yaml:"sound"`
}

// LoadTableLayout loads a table layout YAML file.
func LoadTableLayout(path string) (*TableLayout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table layout: %w", err)
	}
	t, err := ParseTableLayout(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func ParseTableLayout(raw []byte) (*TableLayout, error) {
	var t TableLayout
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse table layout: %w", err)
	}
	t.applyDefaults()
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *TableLayout) applyDefaults() {
	if t.Ball.Radius == 0 {
		t.Ball.Radius = 0.5
	}
	if t.Ball.Mass == 0 {
		t.Ball.Mass = 1
	}
	if t.Ball.MaxSpeed == 0 {
		t.Ball.MaxSpeed = 100
	}
	for i := range t.Bumpers {
		b := &t.Bumpers[i]
		if b.Radius == 0 {
			b.Radius = 1
		}
		if b.Strength == 0 {
			b.Strength = 25
		}
		if b.Points == 0 {
			b.Points = 700
		}
	}
	for i := range t.Posts {
		if t.Posts[i].Radius == 0 {
			t.Posts[i].Radius = 0.3
		}
	}
	for i := range t.Flippers {
		f := &t.Flippers[i]
		if f.Radius == 0 {
			f.Radius = 0.6
		}
		if f.Speed == 0 {
			f.Speed = 1200
		}
		if f.Action == "" {
			f.Action = f.Side + "Flipper"
		}
	}
	for i := range t.Pendulums {
		p := &t.Pendulums[i]
		if p.Mass == 0 {
			p.Mass = 2
		}
		if p.Radius == 0 {
			p.Radius = 0.8
		}
	}
	if t.Plunger.Action == "" {
		t.Plunger.Action = "launch"
	}
}

func (t *TableLayout) validate() error {
	switch {
	case t.Size[0] <= 0 || t.Size[1] <= 0:
		return fmt.Errorf("%w: size %v", ErrLayout, t.Size)
	case len(t.Drain.Points) < 2:
		return fmt.Errorf("%w: drain needs two points", ErrLayout)
	}
	for i, w := range t.Walls {
		if len(w.Points) < 2 {
			return fmt.Errorf("%w: wall %d needs two points", ErrLayout, i)
		}
	}
	for i, f := range t.Flippers {
		if f.Side != "left" && f.Side != "right" {
			return fmt.Errorf("%w: flipper %d side %q", ErrLayout, i, f.Side)
		}
		if f.Length <= 0 {
			return fmt.Errorf("%w: flipper %d length %v", ErrLayout, i, f.Length)
		}
	}
	for i, p := range t.Pendulums {
		if p.Length <= 0 {
			return fmt.Errorf("%w: pendulum %d length %v", ErrLayout, i, p.Length)
		}
	}
	return nil
}
