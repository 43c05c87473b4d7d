// FilePath: internal/simulator/simulator_test.go
package simulator_test

import (
	"testing"
	"time"

	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateIsDeterministic(t *testing.T) {
	profile := simulator.DefaultProfile(models.Temperature)

	first, err := simulator.Generate(simulator.ScenarioNormal, profile, start, time.Second, 50, 42)
	require.NoError(t, err)
	second, err := simulator.Generate(simulator.ScenarioNormal, profile, start, time.Second, 50, 42)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed must reproduce the same sequence")
}

func TestGenerateTimestampsAreSpacedByInterval(t *testing.T) {
	profile := simulator.DefaultProfile(models.RPM)
	points, err := simulator.Generate(simulator.ScenarioNormal, profile, start, 30*time.Second, 10, 1)
	require.NoError(t, err)
	require.Len(t, points, 10)

	for i, p := range points {
		assert.Equal(t, start.Add(time.Duration(i)*30*time.Second), p.Timestamp)
	}
}

func TestGenerateRejectsBadArguments(t *testing.T) {
	profile := simulator.DefaultProfile(models.Speed)

	_, err := simulator.Generate(simulator.ScenarioNormal, profile, start, time.Second, 0, 1)
	assert.Error(t, err)

	_, err = simulator.Generate(simulator.ScenarioNormal, profile, start, 0, 10, 1)
	assert.Error(t, err)

	_, err = simulator.Generate(simulator.Scenario("bogus"), profile, start, time.Second, 10, 1)
	assert.Error(t, err)
}

func TestNormalStaysNearBaseline(t *testing.T) {
	profile := simulator.DefaultProfile(models.Temperature)
	points, err := simulator.Generate(simulator.ScenarioNormal, profile, start, time.Second, 200, 7)
	require.NoError(t, err)

	for _, p := range points {
		assert.InDelta(t, profile.Baseline, p.Value, profile.Jitter*5)
	}
}

func TestCriticalExceedsCriticalLevel(t *testing.T) {
	profile := simulator.DefaultProfile(models.Temperature)
	points, err := simulator.Generate(simulator.ScenarioCritical, profile, start, time.Second, 100, 7)
	require.NoError(t, err)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.Value, profile.CriticalLevel)
	}
}

func TestProgressiveFailureRampsUp(t *testing.T) {
	profile := simulator.DefaultProfile(models.Pressure)
	points, err := simulator.Generate(simulator.ScenarioProgressiveFailure, profile, start, time.Second, 100, 3)
	require.NoError(t, err)

	assert.InDelta(t, profile.Baseline, points[0].Value, profile.Jitter*3)
	last := points[len(points)-1]
	assert.Greater(t, last.Value, profile.CriticalLevel*0.9, "sequence must end near or past critical")
	assert.Equal(t, 1.0, last.Metadata["failure_progress"])
}

func TestSpikeAnomalyHasSingleSpike(t *testing.T) {
	profile := simulator.DefaultProfile(models.Vibration)
	points, err := simulator.Generate(simulator.ScenarioSpikeAnomaly, profile, start, time.Second, 101, 9)
	require.NoError(t, err)

	spikes := 0
	for _, p := range points {
		if p.Value > profile.CriticalLevel {
			spikes++
		}
	}
	assert.Equal(t, 1, spikes)
	assert.Equal(t, true, points[50].Metadata["spike"])
}

func TestMetadataCarriesScenarioTag(t *testing.T) {
	profile := simulator.DefaultProfile(models.FuelLevel)
	points, err := simulator.Generate(simulator.ScenarioDailyPattern, profile, start, time.Minute, 5, 2)
	require.NoError(t, err)

	for _, p := range points {
		assert.Equal(t, "daily_pattern", p.Metadata["scenario"])
		assert.Equal(t, true, p.Metadata["synthetic"])
	}
}

func TestAllScenariosProduceFullSequences(t *testing.T) {
	profile := simulator.DefaultProfile(models.Voltage)
	for _, scenario := range simulator.Scenarios() {
		points, err := simulator.Generate(scenario, profile, start, time.Second, 20, 11)
		require.NoError(t, err, "scenario %s", scenario)
		assert.Len(t, points, 20, "scenario %s", scenario)
	}
}
