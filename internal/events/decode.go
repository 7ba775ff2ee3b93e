package events

import (
	"github.com/pinsim/pinsim/internal/core/event"
)

// Decode builds the typed event for name from loose fields, the inverse of
// Fields. Script bridges use it so events raised from Lua reach typed Go
// handlers. Unknown names become an event.Message carrying the fields.
func Decode(name string, f map[string]any) event.Event {
	switch name {
	case TypeScore:
		return Score{Points: int(num(f["points"]))}
	case TypePlaySound:
		return PlaySound{
			Sound: str(f["sound"]),
			Gain:  num(f["gain"]),
			Pan:   num(f["pan"]),
			Speed: num(f["speed"]),
		}
	case TypeNewBall:
		return NewBall{NoSound: flag(f["no_sound"])}
	case TypeGameStart:
		return GameStart{}
	case TypeDrain:
		return Drain{}
	case TypeGameOver:
		return GameOver{}
	case TypeTogglePause:
		return TogglePause{}
	case TypeSlowMo:
		return SlowMo{Factor: num(f["factor"])}
	case TypeKeyDown:
		return KeyDown{Key: str(f["key"]), Action: str(f["action"])}
	case TypeKeyUp:
		return KeyUp{Key: str(f["key"]), Action: str(f["action"])}
	}
	return event.Message{Name: name, Data: f}
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func flag(v any) bool {
	b, _ := v.(bool)
	return b
}
