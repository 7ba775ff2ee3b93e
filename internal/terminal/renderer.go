package terminal

import (
	"fmt"
	"math"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/physics"
	"go.uber.org/zap"
)

// Drawable is a render object the terminal renderer understands.
type Drawable interface {
	Draw(c *Canvas)
}

// Layered drawables are drawn in ascending layer order; the rest sit on
// layer 0. Equal layers keep insertion order.
type Layered interface {
	Layer() int
}

// Renderer draws every render object in the scene once per frame. It
// implements ecs.Scene.
type Renderer struct {
	screen tcell.Screen
	log    *zap.Logger
	world  physics.Vec

	objs   []Drawable
	status []string
	frames uint64
}

// NewRenderer maps a world of the given size onto the whole screen.
func NewRenderer(screen tcell.Screen, world physics.Vec, log *zap.Logger) *Renderer {
	return &Renderer{screen: screen, world: world, log: log}
}

var _ ecs.Scene = (*Renderer)(nil)

func (r *Renderer) Add(obj ecs.RenderObject) {
	d, ok := obj.(Drawable)
	if !ok {
		r.log.Warn("render object not drawable", zap.String("type", fmt.Sprintf("%T", obj)))
		return
	}
	r.objs = append(r.objs, d)
}

func (r *Renderer) Remove(obj ecs.RenderObject) {
	for i, d := range r.objs {
		if any(d) == obj {
			r.objs = append(r.objs[:i], r.objs[i+1:]...)
			return
		}
	}
}

// Len returns the number of objects in the scene.
func (r *Renderer) Len() int { return len(r.objs) }

func (r *Renderer) Frames() uint64 { return r.frames }

// SetStatus replaces the status lines drawn at the bottom of the screen.
func (r *Renderer) SetStatus(lines ...string) {
	r.status = append(r.status[:0], lines...)
}

// RenderFrame redraws the screen.
func (r *Renderer) RenderFrame() {
	r.screen.Clear()
	w, h := r.screen.Size()
	rows := h - len(r.status)
	if rows < 1 {
		rows = 1
	}
	c := &Canvas{screen: r.screen, cols: w, rows: rows}
	if r.world.X > 0 && r.world.Y > 0 {
		c.sx = float64(w) / r.world.X
		c.sy = float64(rows) / r.world.Y
	} else {
		c.sx, c.sy = 1, 1
	}

	order := make([]Drawable, len(r.objs))
	copy(order, r.objs)
	sort.SliceStable(order, func(i, j int) bool { return layer(order[i]) < layer(order[j]) })
	for _, d := range order {
		d.Draw(c)
	}
	for i, line := range r.status {
		c.Text(0, rows+i, line, tcell.StyleDefault.Bold(true))
	}
	r.screen.Show()
	r.frames++
}

func layer(d Drawable) int {
	if l, ok := d.(Layered); ok {
		return l.Layer()
	}
	return 0
}

// Canvas draws in world coordinates, clipped to the playfield rows.
type Canvas struct {
	screen     tcell.Screen
	cols, rows int
	sx, sy     float64
}

// Cell returns the screen cell of world point p.
func (c *Canvas) Cell(p physics.Vec) (int, int) {
	return int(math.Floor(p.X * c.sx)), int(math.Floor(p.Y * c.sy))
}

func (c *Canvas) set(x, y int, r rune, st tcell.Style) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	c.screen.SetContent(x, y, r, nil, st)
}

func (c *Canvas) Plot(p physics.Vec, r rune, st tcell.Style) {
	x, y := c.Cell(p)
	c.set(x, y, r, st)
}

// Line plots every cell the segment a-b passes through.
func (c *Canvas) Line(a, b physics.Vec, r rune, st tcell.Style) {
	x0, y0 := c.Cell(a)
	x1, y1 := c.Cell(b)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		c.set(x0, y0, r, st)
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * e; e2 >= dy {
			e += dy
			x0 += sx
		} else {
			e += dx
			y0 += sy
		}
	}
}

// Disc fills the cells whose centers lie inside the circle, and always at
// least the center cell.
func (c *Canvas) Disc(center physics.Vec, radius float64, r rune, st tcell.Style) {
	c.Plot(center, r, st)
	x0, y0 := c.Cell(center.Sub(physics.V(radius, radius)))
	x1, y1 := c.Cell(center.Add(physics.V(radius, radius)))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			mid := physics.V((float64(x)+0.5)/c.sx, (float64(y)+0.5)/c.sy)
			if mid.Sub(center).Len() <= radius {
				c.set(x, y, r, st)
			}
		}
	}
}

// Text writes s starting at a screen cell.
func (c *Canvas) Text(col, row int, s string, st tcell.Style) {
	for _, r := range s {
		if col >= c.cols {
			return
		}
		if col >= 0 && row >= 0 {
			c.screen.SetContent(col, row, r, nil, st)
		}
		col++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
