package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 22, cfg.Simulation.TickIterations)
	assert.Equal(t, "leftFlipper", cfg.Input.Bindings["z"])
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(`
[simulation]
tick_rate = "5ms"
slow_mo = 0.5

[audio]
enabled = false

[input.bindings]
a = "leftFlipper"

[logging]
format = "json"
`)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, cfg.Simulation.TickRate)
	assert.Equal(t, 0.5, cfg.Simulation.SlowMo)
	assert.Equal(t, 22, cfg.Simulation.TickIterations)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, "leftFlipper", cfg.Input.Bindings["a"])
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParseRejectsInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"zero tick":     "[simulation]\ntick_rate = \"0s\"",
		"slow mo":       "[simulation]\nslow_mo = 1.5",
		"no iterations": "[simulation]\ntick_iterations = 0",
		"format":        "[logging]\nformat = \"xml\"",
		"unknown key":   "[simulation]\ntick_rat = \"1ms\"",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(doc)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	_, err := Parse("[simulation")
	assert.Error(t, err)
}

func TestLoadAndEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pinsim.toml")
	require.NoError(t, os.WriteFile(path, []byte("[table]\nlayout = \"x.yaml\"\n"), 0o644))

	t.Setenv(EnvPath, path)
	assert.Equal(t, path, Path("config/pinsim.toml"))
	cfg, err := Load(Path("config/pinsim.toml"))
	require.NoError(t, err)
	assert.Equal(t, "x.yaml", cfg.Table.Layout)

	t.Setenv(EnvPath, "")
	assert.Equal(t, "config/pinsim.toml", Path("config/pinsim.toml"))
	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
