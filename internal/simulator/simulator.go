// FilePath: internal/simulator/simulator.go
package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/fleetpulse/hub/internal/models"
)

// Scenario names a synthetic signal shape. Generators are pure: the same
// scenario, profile and seed always produce the same sequence, so a test
// can restart a stream by calling Generate again.
type Scenario string

const (
	ScenarioNormal             Scenario = "normal"
	ScenarioWarning            Scenario = "warning"
	ScenarioCritical           Scenario = "critical"
	ScenarioExtreme            Scenario = "extreme"
	ScenarioProgressiveFailure Scenario = "progressive_failure"
	ScenarioIntermittent       Scenario = "intermittent"
	ScenarioDailyPattern       Scenario = "daily_pattern"
	ScenarioCalibrationDrift   Scenario = "calibration_drift"
	ScenarioSpikeAnomaly       Scenario = "spike_anomaly"
)

// Profile describes the signal envelope for one sensor kind: the healthy
// operating point, normal jitter around it, and the level treated as a
// critical excursion by the anomalous scenarios.
type Profile struct {
	Kind          models.SensorKind
	Unit          string
	Baseline      float64
	Jitter        float64
	WarningLevel  float64
	CriticalLevel float64
}

// Point is one generated sample.
type Point struct {
	Value     float64
	Timestamp time.Time
	Metadata  models.JSON
}

var defaultProfiles = map[models.SensorKind]Profile{
	models.Temperature: {Kind: models.Temperature, Unit: "C", Baseline: 85, Jitter: 3, WarningLevel: 107, CriticalLevel: 125},
	models.Pressure:    {Kind: models.Pressure, Unit: "bar", Baseline: 2.4, Jitter: 0.15, WarningLevel: 3.4, CriticalLevel: 4.2},
	models.Voltage:     {Kind: models.Voltage, Unit: "V", Baseline: 13.8, Jitter: 0.2, WarningLevel: 14.9, CriticalLevel: 15.8},
	models.RPM:         {Kind: models.RPM, Unit: "rpm", Baseline: 2200, Jitter: 180, WarningLevel: 5600, CriticalLevel: 6800},
	models.Vibration:   {Kind: models.Vibration, Unit: "mm/s", Baseline: 1.8, Jitter: 0.4, WarningLevel: 7.5, CriticalLevel: 12},
	models.FuelLevel:   {Kind: models.FuelLevel, Unit: "%", Baseline: 65, Jitter: 1.5, WarningLevel: 12, CriticalLevel: 5},
	models.Speed:       {Kind: models.Speed, Unit: "km/h", Baseline: 80, Jitter: 8, WarningLevel: 145, CriticalLevel: 175},
}

// DefaultProfile returns the built-in envelope for a sensor kind. Unknown
// kinds fall back to a unitless 0..100 profile.
func DefaultProfile(kind models.SensorKind) Profile {
	if p, ok := defaultProfiles[kind]; ok {
		return p
	}
	return Profile{Kind: kind, Baseline: 50, Jitter: 5, WarningLevel: 80, CriticalLevel: 95}
}

// Scenarios lists every supported scenario name.
func Scenarios() []Scenario {
	return []Scenario{
		ScenarioNormal, ScenarioWarning, ScenarioCritical, ScenarioExtreme,
		ScenarioProgressiveFailure, ScenarioIntermittent, ScenarioDailyPattern,
		ScenarioCalibrationDrift, ScenarioSpikeAnomaly,
	}
}

// Generate produces a finite sequence of count samples spaced by interval,
// starting at start. The seed fixes the jitter stream; two calls with the
// same arguments yield identical sequences.
func Generate(scenario Scenario, profile Profile, start time.Time, interval time.Duration, count int, seed int64) ([]Point, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	shape, ok := shapes[scenario]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}

	rng := rand.New(rand.NewSource(seed))
	points := make([]Point, 0, count)
	for i := 0; i < count; i++ {
		ts := start.Add(time.Duration(i) * interval)
		value, meta := shape(profile, i, count, ts, rng)
		if meta == nil {
			meta = models.JSON{}
		}
		meta["scenario"] = string(scenario)
		meta["synthetic"] = true
		points = append(points, Point{Value: roundTo(value, 2), Timestamp: ts, Metadata: meta})
	}
	return points, nil
}

// shapeFunc produces the i-th of n values for a profile. rng is the only
// source of randomness so the sequence is reproducible from the seed.
type shapeFunc func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON)

var shapes = map[Scenario]shapeFunc{
	ScenarioNormal: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		return p.Baseline + rng.NormFloat64()*p.Jitter, nil
	},
	ScenarioWarning: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		// hovers around the warning band without crossing into critical
		return p.WarningLevel + rng.NormFloat64()*p.Jitter*0.5, nil
	},
	ScenarioCritical: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		return p.CriticalLevel + math.Abs(rng.NormFloat64())*p.Jitter, nil
	},
	ScenarioExtreme: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		return p.CriticalLevel*1.5 + math.Abs(rng.NormFloat64())*p.Jitter*2, nil
	},
	ScenarioProgressiveFailure: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		// linear ramp from baseline to past critical over the sequence
		progress := float64(i) / float64(maxInt(n-1, 1))
		value := p.Baseline + progress*(p.CriticalLevel*1.1-p.Baseline)
		return value + rng.NormFloat64()*p.Jitter*0.5, models.JSON{"failure_progress": roundTo(progress, 2)}
	},
	ScenarioIntermittent: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		if rng.Float64() < 0.15 {
			return p.CriticalLevel + rng.Float64()*p.Jitter, models.JSON{"intermittent_fault": true}
		}
		return p.Baseline + rng.NormFloat64()*p.Jitter, nil
	},
	ScenarioDailyPattern: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		// sinusoid with a 24h period anchored to the sample timestamp
		hourOfDay := float64(ts.Hour()) + float64(ts.Minute())/60
		phase := math.Sin((hourOfDay - 6) / 24 * 2 * math.Pi)
		swing := (p.WarningLevel - p.Baseline) * 0.4
		return p.Baseline + phase*swing + rng.NormFloat64()*p.Jitter*0.3, nil
	},
	ScenarioCalibrationDrift: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		// slow offset accumulating over the sequence, still within warning
		drift := float64(i) / float64(maxInt(n-1, 1)) * (p.WarningLevel - p.Baseline) * 0.6
		return p.Baseline + drift + rng.NormFloat64()*p.Jitter*0.4, models.JSON{"drift_offset": roundTo(drift, 2)}
	},
	ScenarioSpikeAnomaly: func(p Profile, i, n int, ts time.Time, rng *rand.Rand) (float64, models.JSON) {
		// one sharp spike at the midpoint of an otherwise normal stream
		if i == n/2 {
			return p.CriticalLevel * 1.3, models.JSON{"spike": true}
		}
		return p.Baseline + rng.NormFloat64()*p.Jitter, nil
	},
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
