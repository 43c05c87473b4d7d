// FilePath: internal/hubservice/hubservice.telemetry_test.go
package hubservice_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/events"
	"github.com/fleetpulse/hub/internal/hubservice"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/rules"
	"github.com/fleetpulse/hub/internal/simulator"
	"github.com/fleetpulse/hub/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repository fakes. Only the methods the ingestion flow touches
// do real work; the rest satisfy the interfaces.

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type baseFake struct{}

func (baseFake) BeginTx(ctx context.Context) (database.Transaction, error) { return fakeTx{}, nil }

type fakeSensorRepo struct {
	baseFake
	mu         sync.Mutex
	sensors    map[string]*models.Sensor
	lastValues map[string]float64
	templates  []*models.SensorTemplate
}

func newFakeSensorRepo(sensors ...*models.Sensor) *fakeSensorRepo {
	repo := &fakeSensorRepo{
		sensors:    make(map[string]*models.Sensor),
		lastValues: make(map[string]float64),
	}
	for _, s := range sensors {
		repo.sensors[s.ID] = s
	}
	return repo
}

func (r *fakeSensorRepo) Get(ctx context.Context, id string) (*models.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sensor, ok := r.sensors[id]
	if !ok {
		return nil, errors.NewNotFoundError("sensor not found", nil)
	}
	return sensor, nil
}

func (r *fakeSensorRepo) UpdateLastValue(ctx context.Context, id string, value float64, timestamp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastValues[id] = value
	return nil
}

func (r *fakeSensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sensors[sensor.ID] = sensor
	return nil
}

func (r *fakeSensorRepo) Update(ctx context.Context, sensor *models.Sensor) error { return nil }
func (r *fakeSensorRepo) SoftDelete(ctx context.Context, id string) error         { return nil }
func (r *fakeSensorRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]*models.Sensor, error) {
	return nil, nil
}
func (r *fakeSensorRepo) List(ctx context.Context, filters models.SensorFilters, page, limit int) (int64, []*models.Sensor, error) {
	return 0, nil, nil
}
func (r *fakeSensorRepo) TemplatesForModel(ctx context.Context, vehicleModel string) ([]*models.SensorTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.SensorTemplate
	for _, tpl := range r.templates {
		if tpl.VehicleModel == vehicleModel {
			matched = append(matched, tpl)
		}
	}
	return matched, nil
}
func (r *fakeSensorRepo) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeVehicleRepo struct {
	baseFake
	mu       sync.Mutex
	vehicles map[string]*models.Vehicle
	touched  map[string]time.Time
}

func newFakeVehicleRepo(vehicles ...*models.Vehicle) *fakeVehicleRepo {
	repo := &fakeVehicleRepo{
		vehicles: make(map[string]*models.Vehicle),
		touched:  make(map[string]time.Time),
	}
	for _, v := range vehicles {
		repo.vehicles[v.ID] = v
	}
	return repo
}

func (r *fakeVehicleRepo) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vehicle, ok := r.vehicles[id]
	if !ok {
		return nil, errors.NewNotFoundError("vehicle not found", nil)
	}
	return vehicle, nil
}

func (r *fakeVehicleRepo) UpdateLastTelemetry(ctx context.Context, id string, receivedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id] = receivedAt
	return nil
}

func (r *fakeVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error { return nil }
func (r *fakeVehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error { return nil }
func (r *fakeVehicleRepo) SoftDelete(ctx context.Context, id string) error           { return nil }
func (r *fakeVehicleRepo) List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	return nil, nil
}
func (r *fakeVehicleRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	return nil
}

type fakeHistoryRepo struct {
	baseFake
	mu       sync.Mutex
	appended []*models.Reading
	fail     error
}

func (r *fakeHistoryRepo) Append(ctx context.Context, reading *models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.appended = append(r.appended, reading)
	return nil
}

func (r *fakeHistoryRepo) GetReadings(ctx context.Context, sensorID string, start, end time.Time) ([]models.Reading, error) {
	return nil, nil
}
func (r *fakeHistoryRepo) GetAggregates(ctx context.Context, sensorID string, start, end time.Time, interval string) ([]models.ReadingAggregate, error) {
	return nil, nil
}
func (r *fakeHistoryRepo) DeleteOldData(ctx context.Context, before time.Time) error { return nil }

// Test fixture

func f64(v float64) *float64 { return &v }

func engineTempSensor() *models.Sensor {
	return &models.Sensor{
		ID:          "sen-1",
		VehicleID:   "veh-1",
		ComponentID: "engine",
		Name:        "engine_temp",
		Kind:        models.Temperature,
		Unit:        "C",
		MinValue:    f64(-40),
		MaxValue:    f64(150),
		Status:      models.SensorActive,
	}
}

type fixture struct {
	svc     *hubservice.HubService
	history *fakeHistoryRepo
	sensors *fakeSensorRepo
	bus     *events.Bus

	mu        sync.Mutex
	published []events.Event
}

func newFixture(t *testing.T, sensors *fakeSensorRepo) *fixture {
	t.Helper()
	vehicles := newFakeVehicleRepo(&models.Vehicle{ID: "veh-1", OwnerID: "user-1", Model: "atlas-9"})
	history := &fakeHistoryRepo{}
	bus := events.NewBus()
	t.Cleanup(bus.Close)

	ruleSet := rules.NewRuleSet()
	ruleSet.Put(&models.Rule{
		ID:             "rule-1",
		ComponentID:    "engine",
		Parameter:      models.Temperature,
		Logic:          models.GreaterThan,
		GoodValue:      f64(90),
		AttentionValue: f64(105),
		CriticalValue:  f64(120),
	})

	fx := &fixture{
		svc:     hubservice.New(vehicles, sensors, nil, nil, history, ruleSet, state.NewStore(), bus),
		history: history,
		sensors: sensors,
		bus:     bus,
	}

	record := func(e events.Event) {
		fx.mu.Lock()
		fx.published = append(fx.published, e)
		fx.mu.Unlock()
	}
	bus.Subscribe(events.TypeReadingRegistered, "test.readings", record)
	bus.Subscribe(events.TypeStateChanged, "test.transitions", record)
	bus.Subscribe(events.TypeCriticalThresholdViolated, "test.critical", record)
	bus.Subscribe(events.TypeSensorOutOfRange, "test.range", record)
	return fx
}

func (fx *fixture) eventsOfType(t events.Type) []events.Event {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	var matched []events.Event
	for _, e := range fx.published {
		if e.EventType() == t {
			matched = append(matched, e)
		}
	}
	return matched
}

func TestRecordReadingCriticalFlow(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))
	ctx := context.Background()

	reading, err := fx.svc.RecordReading(ctx, "veh-1", "sen-1", 130, time.Now().UTC(), models.JSON{"battery": 0.9})
	require.NoError(t, err)

	assert.Equal(t, "sen-1", reading.SensorID)
	assert.Equal(t, 130.0, reading.Value)
	assert.Equal(t, "C", reading.Unit)
	assert.True(t, reading.AlertRaised)
	assert.False(t, reading.OutOfRange)

	assert.Len(t, fx.eventsOfType(events.TypeReadingRegistered), 1)
	assert.Len(t, fx.eventsOfType(events.TypeCriticalThresholdViolated), 1)

	transitions := fx.eventsOfType(events.TypeStateChanged)
	require.Len(t, transitions, 1)
	change := transitions[0].(events.StateChanged)
	assert.Equal(t, models.TierUnknown, change.OldTier)
	assert.Equal(t, models.TierCritical, change.NewTier)

	require.Len(t, fx.history.appended, 1)
	assert.Equal(t, 130.0, fx.sensors.lastValues["sen-1"])
	assert.Equal(t, models.TierCritical, fx.svc.State.Aggregate("veh-1"))
}

func TestRecordReadingNoRuleDefaultsToGood(t *testing.T) {
	sensor := engineTempSensor()
	sensor.ID = "sen-2"
	sensor.ComponentID = "cabin"
	fx := newFixture(t, newFakeSensorRepo(sensor))

	reading, err := fx.svc.RecordReading(context.Background(), "veh-1", "sen-2", 130, time.Now().UTC(), nil)
	require.NoError(t, err)

	assert.False(t, reading.AlertRaised)
	assert.Empty(t, fx.eventsOfType(events.TypeCriticalThresholdViolated))
	assert.Equal(t, models.TierGood, fx.svc.State.Get("veh-1", "cabin").Tier)
}

func TestRecordReadingSingleTransitionForQuickSuccession(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))
	ctx := context.Background()

	_, err := fx.svc.RecordReading(ctx, "veh-1", "sen-1", 95, time.Now().UTC(), nil)
	require.NoError(t, err)
	_, err = fx.svc.RecordReading(ctx, "veh-1", "sen-1", 130, time.Now().UTC(), nil)
	require.NoError(t, err)
	_, err = fx.svc.RecordReading(ctx, "veh-1", "sen-1", 131, time.Now().UTC(), nil)
	require.NoError(t, err)

	transitions := fx.eventsOfType(events.TypeStateChanged)
	// UNKNOWN->GOOD on first reading, GOOD->CRITICAL on second; the third
	// reading stays CRITICAL and publishes no transition
	require.Len(t, transitions, 2)
	second := transitions[1].(events.StateChanged)
	assert.Equal(t, models.TierGood, second.OldTier)
	assert.Equal(t, models.TierCritical, second.NewTier)
}

func TestRecordReadingUnknownSensor(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo())

	_, err := fx.svc.RecordReading(context.Background(), "veh-1", "ghost", 42, time.Now().UTC(), nil)
	require.Error(t, err)
	assert.Equal(t, "not_found", errors.AsAPIError(err).WireType())
	assert.Empty(t, fx.eventsOfType(events.TypeReadingRegistered))
}

func TestRecordReadingWrongVehicle(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))

	_, err := fx.svc.RecordReading(context.Background(), "veh-other", "sen-1", 42, time.Now().UTC(), nil)
	require.Error(t, err)
	assert.Equal(t, "not_found", errors.AsAPIError(err).WireType())
}

func TestRecordReadingInactiveSensorRejected(t *testing.T) {
	sensor := engineTempSensor()
	sensor.Status = models.SensorInactive
	fx := newFixture(t, newFakeSensorRepo(sensor))

	_, err := fx.svc.RecordReading(context.Background(), "veh-1", "sen-1", 42, time.Now().UTC(), nil)
	require.Error(t, err)
	assert.Equal(t, "validation_error", errors.AsAPIError(err).WireType())
}

func TestRecordReadingOutOfRangePublishesWarning(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))

	reading, err := fx.svc.RecordReading(context.Background(), "veh-1", "sen-1", 160, time.Now().UTC(), nil)
	require.NoError(t, err)

	assert.True(t, reading.OutOfRange)
	assert.Len(t, fx.eventsOfType(events.TypeSensorOutOfRange), 1)
}

func TestRecordReadingHistoryFailureIsBestEffort(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))
	fx.history.fail = errors.NewDatabaseError("timescale down", nil)

	reading, err := fx.svc.RecordReading(context.Background(), "veh-1", "sen-1", 95, time.Now().UTC(), nil)
	require.NoError(t, err, "a history outage must not drop the frame")
	require.NotNil(t, reading)
	assert.Len(t, fx.eventsOfType(events.TypeReadingRegistered), 1)
}

func TestProvisionSensorsFromTemplates(t *testing.T) {
	sensors := newFakeSensorRepo()
	fx := newFixture(t, sensors)

	templates := []*models.SensorTemplate{
		{ID: "tpl-1", VehicleModel: "atlas-9", ComponentID: "engine", Name: "engine_temp", Kind: models.Temperature, Unit: "C"},
		{ID: "tpl-2", VehicleModel: "atlas-9", ComponentID: "battery", Name: "battery_voltage", Kind: models.Voltage, Unit: "V"},
	}
	sensors.templates = templates

	provisioned, err := fx.svc.ProvisionSensors(context.Background(), "veh-1")
	require.NoError(t, err)
	require.Len(t, provisioned, 2)

	for _, sensor := range provisioned {
		assert.Equal(t, "veh-1", sensor.VehicleID)
		assert.Equal(t, models.SensorActive, sensor.Status)
		assert.NotEmpty(t, sensor.ID)
	}
}

func TestSimulateReadingsFeedsIngestFlow(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))

	readings, err := fx.svc.SimulateReadings(context.Background(), "sen-1", hubservice.SimulationParams{
		Scenario: simulator.ScenarioCritical,
		Count:    5,
		Interval: time.Second,
		Seed:     42,
	})
	require.NoError(t, err)
	require.Len(t, readings, 5)

	for _, reading := range readings {
		assert.Equal(t, "sen-1", reading.SensorID)
		assert.True(t, reading.AlertRaised)
		assert.Equal(t, "critical", reading.Metadata["scenario"])
	}

	// every synthetic sample travels the full pipeline
	assert.Len(t, fx.history.appended, 5)
	assert.Len(t, fx.eventsOfType(events.TypeReadingRegistered), 5)
	assert.Len(t, fx.eventsOfType(events.TypeCriticalThresholdViolated), 5)

	// only the first sample moves the health state
	transitions := fx.eventsOfType(events.TypeStateChanged)
	require.Len(t, transitions, 1)
	assert.Equal(t, models.TierCritical, transitions[0].(events.StateChanged).NewTier)
}

func TestSimulateReadingsRejectsUnknownScenario(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo(engineTempSensor()))

	_, err := fx.svc.SimulateReadings(context.Background(), "sen-1", hubservice.SimulationParams{
		Scenario: "meltdown",
		Count:    3,
		Interval: time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, fx.eventsOfType(events.TypeReadingRegistered))
}

func TestSimulateReadingsUnknownSensor(t *testing.T) {
	fx := newFixture(t, newFakeSensorRepo())

	_, err := fx.svc.SimulateReadings(context.Background(), "sen-missing", hubservice.SimulationParams{
		Scenario: simulator.ScenarioNormal,
		Count:    3,
		Interval: time.Second,
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
