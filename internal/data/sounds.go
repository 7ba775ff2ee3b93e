package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SoundDef is one entry of the sound bank: a synthesized tone.
type SoundDef struct {
	Name     string        `yaml:"name"`
	Wave     string        `yaml:"wave"`
	Freq     float64       `yaml:"freq"`
	SweepTo  float64       `yaml:"sweep_to"`
	Duration time.Duration `yaml:"duration"`
	Decay    time.Duration `yaml:"decay"`
	Gain     float64       `yaml:"gain"`
}

// SoundBank holds the sound definitions in file order.
type SoundBank struct {
	defs   []SoundDef
	byName map[string]int
}

// LoadSoundBank loads sounds.yaml.
func LoadSoundBank(path string) (*SoundBank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sound bank: %w", err)
	}
	return ParseSoundBank(raw)
}

func ParseSoundBank(raw []byte) (*SoundBank, error) {
	var file struct {
		Sounds []SoundDef `yaml:"sounds"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse sound bank: %w", err)
	}
	b := &SoundBank{byName: make(map[string]int, len(file.Sounds))}
	for _, d := range file.Sounds {
		if d.Name == "" {
			return nil, fmt.Errorf("parse sound bank: entry %d has no name", len(b.defs))
		}
		if _, dup := b.byName[d.Name]; dup {
			return nil, fmt.Errorf("parse sound bank: duplicate sound %q", d.Name)
		}
		b.byName[d.Name] = len(b.defs)
		b.defs = append(b.defs, d)
	}
	return b, nil
}

func (b *SoundBank) Get(name string) (SoundDef, bool) {
	i, ok := b.byName[name]
	if !ok {
		return SoundDef{}, false
	}
	return b.defs[i], true
}

func (b *SoundBank) All() []SoundDef { return b.defs }

func (b *SoundBank) Count() int { return len(b.defs) }
