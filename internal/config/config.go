package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "PINSIM_CONFIG"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Audio      AudioConfig      `toml:"audio"`
	Input      InputConfig      `toml:"input"`
	Table      TableConfig      `toml:"table"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	TickRate       time.Duration `toml:"tick_rate"`       // fixed tick duration
	TickIterations int           `toml:"tick_iterations"` // catch-up cap per frame
	FrameRate      time.Duration `toml:"frame_rate"`      // real frame interval
	SlowMo         float64       `toml:"slow_mo"`         // (0,1]
	SlowMoFactor   float64       `toml:"slow_mo_factor"`  // applied by the slow-mo toggle
	Iterations     int           `toml:"solver_iterations"`
	StartPaused    bool          `toml:"start_paused"`
	AutoPause      bool          `toml:"auto_pause"` // pause when the terminal loses focus
}

type AudioConfig struct {
	Enabled    bool          `toml:"enabled"`
	SampleRate int           `toml:"sample_rate"`
	Buffer     time.Duration `toml:"buffer"`
	MasterGain float64       `toml:"master_gain"`
	MaxVoices  int           `toml:"max_voices"`
	Sounds     string        `toml:"sounds"` // sound bank YAML
}

type InputConfig struct {
	// Bindings maps key names to actions, e.g. z = "leftFlipper".
	Bindings   map[string]string `toml:"bindings"`
	KeyRelease time.Duration     `toml:"key_release"`
	Mouse      bool              `toml:"mouse"`
}

type TableConfig struct {
	Layout  string   `toml:"layout"`  // table layout YAML
	Scripts []string `toml:"scripts"` // Lua scripts attached as entities
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // the terminal owns stderr, so logs go here
}

// Path returns the config path to load: $PINSIM_CONFIG when set, else def.
func Path(def string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return def
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Defaults()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s", ErrInvalid, keys[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case s.TickRate <= 0:
		return fmt.Errorf("%w: simulation.tick_rate must be positive", ErrInvalid)
	case s.TickIterations <= 0:
		return fmt.Errorf("%w: simulation.tick_iterations must be positive", ErrInvalid)
	case s.FrameRate <= 0:
		return fmt.Errorf("%w: simulation.frame_rate must be positive", ErrInvalid)
	case !(s.SlowMo > 0 && s.SlowMo <= 1):
		return fmt.Errorf("%w: simulation.slow_mo %v outside (0,1]", ErrInvalid, s.SlowMo)
	case !(s.SlowMoFactor > 0 && s.SlowMoFactor <= 1):
		return fmt.Errorf("%w: simulation.slow_mo_factor %v outside (0,1]", ErrInvalid, s.SlowMoFactor)
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("%w: audio.sample_rate must be positive", ErrInvalid)
	case c.Audio.MaxVoices <= 0:
		return fmt.Errorf("%w: audio.max_voices must be positive", ErrInvalid)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:       time.Second / 120,
			TickIterations: 22,
			FrameRate:      time.Second / 60,
			SlowMo:         1,
			SlowMoFactor:   0.25,
			Iterations:     4,
			AutoPause:      true,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Buffer:     50 * time.Millisecond,
			MasterGain: 0.8,
			MaxVoices:  32,
			Sounds:     "data/sounds.yaml",
		},
		Input: InputConfig{
			Bindings: map[string]string{
				"z":     "leftFlipper",
				"left":  "leftFlipper",
				"/":     "rightFlipper",
				"right": "rightFlipper",
				"space": "launch",
				"p":     "pause",
				"t":     "slowMo",
				"enter": "start",
				"q":     "quit",
			},
			KeyRelease: 550 * time.Millisecond,
			Mouse:      true,
		},
		Table: TableConfig{
			Layout:  "data/table.yaml",
			Scripts: []string{"scripts/logic_board.lua"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "pinsim.log",
		},
	}
}
