// FilePath: internal/cleanup/cleanup.go
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CleanupService enforces the retention policy: aged-out readings are
// dropped from the history store and soft-deleted sensors past their grace
// period are purged for good.
type CleanupService struct {
	sensors repository.SensorRepository
	history repository.ReadingHistoryRepository
	events  *nuts.EventEmitter
}

// New creates a new CleanupService
func New(
	sensors repository.SensorRepository,
	history repository.ReadingHistoryRepository,
) *CleanupService {
	return &CleanupService{
		sensors: sensors,
		history: history,
		events:  nuts.NewEventEmitter(),
	}
}

// Sweep runs one retention pass. Both steps run even if the first fails;
// errors are joined into the returned error.
func (s *CleanupService) Sweep(ctx context.Context, cfg config.RetentionConfig) error {
	cutoff := time.Now().UTC().Add(-cfg.ReadingsMaxAge)

	var sweepErr error
	if err := s.history.DeleteOldData(ctx, cutoff); err != nil {
		sweepErr = fmt.Errorf("failed to delete aged readings: %w", err)
	} else {
		s.events.Emit("readings.purged", cutoff.Format(time.RFC3339))
	}

	purged, err := s.sensors.PurgeDeleted(ctx, cutoff)
	if err != nil {
		if sweepErr != nil {
			return fmt.Errorf("%w; failed to purge sensors: %w", sweepErr, err)
		}
		return fmt.Errorf("failed to purge sensors: %w", err)
	}
	if purged > 0 {
		s.events.Emit("sensors.purged", fmt.Sprintf("%d", purged))
	}

	nuts.L.Infof("[CleanupService] Retention sweep done, purged %d soft-deleted sensors, cutoff %s", purged, cutoff.Format(time.RFC3339))
	return sweepErr
}

// Run sweeps on the configured interval until the context is cancelled. A
// failed sweep is logged and retried on the next tick.
func (s *CleanupService) Run(ctx context.Context, cfg config.RetentionConfig) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	nuts.L.Infof("[CleanupService] Retention sweeper started, interval %s, max age %s", cfg.SweepInterval, cfg.ReadingsMaxAge)
	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[CleanupService] Retention sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx, cfg); err != nil {
				nuts.L.Errorf("[CleanupService] Retention sweep failed: %v", err)
			}
		}
	}
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
