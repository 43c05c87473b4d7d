// FilePath: internal/cleanup/cleanup_test.go
package cleanup_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fleetpulse/hub/internal/cleanup"
	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type baseFake struct{}

func (baseFake) BeginTx(ctx context.Context) (database.Transaction, error) { return fakeTx{}, nil }

type fakeHistory struct {
	baseFake
	deletedBefore time.Time
	fail          error
}

func (h *fakeHistory) Append(ctx context.Context, reading *models.Reading) error { return nil }
func (h *fakeHistory) GetReadings(ctx context.Context, sensorID string, start, end time.Time) ([]models.Reading, error) {
	return nil, nil
}
func (h *fakeHistory) GetAggregates(ctx context.Context, sensorID string, start, end time.Time, interval string) ([]models.ReadingAggregate, error) {
	return nil, nil
}
func (h *fakeHistory) DeleteOldData(ctx context.Context, before time.Time) error {
	if h.fail != nil {
		return h.fail
	}
	h.deletedBefore = before
	return nil
}

type fakeSensors struct {
	baseFake
	purged int64
	fail   error
}

func (s *fakeSensors) Create(ctx context.Context, sensor *models.Sensor) error { return nil }
func (s *fakeSensors) Get(ctx context.Context, id string) (*models.Sensor, error) {
	return nil, errors.New("not implemented")
}
func (s *fakeSensors) Update(ctx context.Context, sensor *models.Sensor) error { return nil }
func (s *fakeSensors) SoftDelete(ctx context.Context, id string) error         { return nil }
func (s *fakeSensors) ListByVehicle(ctx context.Context, vehicleID string) ([]*models.Sensor, error) {
	return nil, nil
}
func (s *fakeSensors) List(ctx context.Context, filters models.SensorFilters, page, limit int) (int64, []*models.Sensor, error) {
	return 0, nil, nil
}
func (s *fakeSensors) UpdateLastValue(ctx context.Context, id string, value float64, timestamp time.Time) error {
	return nil
}
func (s *fakeSensors) TemplatesForModel(ctx context.Context, vehicleModel string) ([]*models.SensorTemplate, error) {
	return nil, nil
}
func (s *fakeSensors) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	if s.fail != nil {
		return 0, s.fail
	}
	return s.purged, nil
}

var testRetention = config.RetentionConfig{
	ReadingsMaxAge: 90 * 24 * time.Hour,
	SweepInterval:  time.Hour,
}

func TestSweepDeletesAgedReadings(t *testing.T) {
	history := &fakeHistory{}
	sensors := &fakeSensors{purged: 3}
	svc := cleanup.New(sensors, history)

	var purgedReadings, purgedSensors []string
	svc.OnCleanup("readings.purged", func(id string) { purgedReadings = append(purgedReadings, id) })
	svc.OnCleanup("sensors.purged", func(id string) { purgedSensors = append(purgedSensors, id) })

	require.NoError(t, svc.Sweep(context.Background(), testRetention))

	wantCutoff := time.Now().UTC().Add(-testRetention.ReadingsMaxAge)
	assert.WithinDuration(t, wantCutoff, history.deletedBefore, 5*time.Second)

	// emitter delivery is asynchronous
	require.Eventually(t, func() bool {
		return len(purgedReadings) == 1 && len(purgedSensors) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "3", purgedSensors[0])
}

func TestSweepContinuesAfterHistoryFailure(t *testing.T) {
	history := &fakeHistory{fail: errors.New("hypertable unavailable")}
	sensors := &fakeSensors{purged: 1}
	svc := cleanup.New(sensors, history)

	err := svc.Sweep(context.Background(), testRetention)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aged readings")
}

func TestSweepJoinsBothFailures(t *testing.T) {
	history := &fakeHistory{fail: errors.New("hypertable unavailable")}
	sensors := &fakeSensors{fail: errors.New("purge blocked")}
	svc := cleanup.New(sensors, history)

	err := svc.Sweep(context.Background(), testRetention)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aged readings")
	assert.Contains(t, err.Error(), "purge sensors")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	svc := cleanup.New(&fakeSensors{}, &fakeHistory{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, config.RetentionConfig{ReadingsMaxAge: time.Hour, SweepInterval: time.Hour})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
