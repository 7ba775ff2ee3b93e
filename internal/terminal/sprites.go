package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/pinsim/pinsim/internal/physics"
)

// BodySprite draws a physics body by its shape.
type BodySprite struct {
	Body  *physics.Body
	Glyph rune
	Style tcell.Style
	Z     int
}

func (s *BodySprite) Layer() int { return s.Z }

func (s *BodySprite) Draw(c *Canvas) {
	switch sh := s.Body.Shape.(type) {
	case physics.Circle:
		c.Disc(s.Body.Pos, sh.Radius, s.Glyph, s.Style)
	case physics.Segment:
		a, b := s.Body.WorldSegment(sh)
		c.Line(a, b, s.Glyph, s.Style)
	}
}

// Label is screen-anchored text whose content is read at draw time.
type Label struct {
	Col, Row int
	Text     func() string
	Style    tcell.Style
}

func (l *Label) Layer() int { return 10 }

func (l *Label) Draw(c *Canvas) {
	c.Text(l.Col, l.Row, l.Text(), l.Style)
}
