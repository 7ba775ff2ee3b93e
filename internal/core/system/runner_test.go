package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (s stubSystem) Phase() Phase { return s.phase }

func (s stubSystem) Update(time.Duration) { *s.log = append(*s.log, s.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(stubSystem{"cleanup", PhaseCleanup, &log})
	r.Register(stubSystem{"physics", PhasePhysics, &log})
	r.Register(stubSystem{"update-a", PhaseUpdate, &log})
	r.Register(stubSystem{"input", PhaseInput, &log})
	r.Register(stubSystem{"update-b", PhaseUpdate, &log})
	r.Register(stubSystem{"timers", PhaseTimers, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"input", "timers", "update-a", "update-b", "physics", "cleanup"}, log)

	log = nil
	r.TickPhase(PhaseInput, 0)
	assert.Equal(t, []string{"input"}, log)
	assert.Equal(t, "post-update", PhasePostUpdate.String())
}
