package cron

import (
	"testing"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cronAgent(name, expr string) *config.AgentDefinition {
	return &config.AgentDefinition{Name: name, Abbreviation: "ABC", Cron: expr}
}

func TestNew_RejectsInvalidExpression(t *testing.T) {
	_, err := New([]*config.AgentDefinition{cronAgent("Bad (ABC)", "not a cron")}, time.Now())
	require.Error(t, err)
}

func TestNew_SkipsAgentsWithoutCron(t *testing.T) {
	s, err := New([]*config.AgentDefinition{{Name: "No Cron (NOC)"}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestTick_FiresExactlyOncePerAgentPerTick(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 59, 0, 0, time.UTC)
	agent := cronAgent("Hourly (HRL)", "0 * * * *")
	s, err := New([]*config.AgentDefinition{agent}, base)
	require.NoError(t, err)

	// Not yet due at 09:59 when the next fire is 10:00.
	assert.Empty(t, s.Tick(base))

	firstTick := base.Add(90 * time.Minute) // 11:29 — well past the 10:00 fire
	due := s.Tick(firstTick)
	require.Len(t, due, 1)
	assert.Equal(t, agent, due[0].Agent)

	// A second Tick at the same moment must not re-fire: next_fire was
	// recomputed from firstTick, landing at 12:00.
	assert.Empty(t, s.Tick(firstTick))
}

func TestTick_MultipleAgentsFireIndependently(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hourly := cronAgent("Hourly (HRL)", "0 * * * *")
	daily := cronAgent("Daily (DLY)", "0 0 * * *")
	s, err := New([]*config.AgentDefinition{hourly, daily}, base)
	require.NoError(t, err)

	// At 01:00 only the hourly schedule is due; the daily one fires at the
	// next midnight.
	due := s.Tick(base.Add(time.Hour))
	require.Len(t, due, 1)
	assert.Equal(t, hourly, due[0].Agent)

	// A day later both are due again: the hourly schedule's next fire was
	// recomputed to 02:00 and has long passed, and midnight has come
	// around for the daily one. Each still fires at most once.
	due = s.Tick(base.Add(24 * time.Hour))
	require.Len(t, due, 2)
	assert.Equal(t, hourly, due[0].Agent)
	assert.Equal(t, daily, due[1].Agent)
}
