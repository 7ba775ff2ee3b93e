package table

import (
	"github.com/pinsim/pinsim/internal/core/ecs"
	"github.com/pinsim/pinsim/internal/core/event"
	"github.com/pinsim/pinsim/internal/events"
	"github.com/pinsim/pinsim/internal/terminal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Scoreboard mirrors the game state for display: score, ball number and
// whether a game is running. The rules themselves live in the logic board
// script.
type Scoreboard struct {
	ecs.Entity

	printer *message.Printer

	score   int
	ball    int
	playing bool
	over    bool
}

func NewScoreboard() *Scoreboard {
	s := &Scoreboard{printer: message.NewPrinter(language.English)}
	s.Resources().AddRenderObject(&terminal.Label{Col: 1, Row: 0, Text: s.Text, Style: styleHUD})
	return s
}

func (s *Scoreboard) Tags() []string { return []string{"scoreboard"} }

func (s *Scoreboard) Handlers() event.Table {
	return event.Table{
		events.TypeGameStart: event.On(func(events.GameStart) {
			s.score, s.ball = 0, 0
			s.playing, s.over = true, false
		}),
		events.TypeNewBall: event.On(func(events.NewBall) { s.ball++ }),
		events.TypeScore:   event.On(func(e events.Score) { s.score += e.Points }),
		events.TypeGameOver: event.On(func(events.GameOver) {
			s.playing, s.over = false, true
		}),
	}
}

func (s *Scoreboard) Score() int { return s.score }

func (s *Scoreboard) Ball() int { return s.ball }

func (s *Scoreboard) Playing() bool { return s.playing }

// Text is the HUD line. Scores are digit-grouped.
func (s *Scoreboard) Text() string {
	switch {
	case s.over:
		return s.printer.Sprintf("SCORE %d  GAME OVER", s.score)
	case !s.playing:
		return s.printer.Sprintf("SCORE %d  PRESS START", s.score)
	}
	return s.printer.Sprintf("SCORE %d  BALL %d", s.score, s.ball)
}
