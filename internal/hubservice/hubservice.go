package hubservice

import (
	"github.com/fleetpulse/hub/internal/cleanup"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/events"
	"github.com/fleetpulse/hub/internal/repository"
	"github.com/fleetpulse/hub/internal/rules"
	"github.com/fleetpulse/hub/internal/state"
)

// HubService contains all repositories, the evaluation machinery and
// service-wide dependencies.
type HubService struct {
	Vehicles    repository.VehicleRepository
	Sensors     repository.SensorRepository
	Rules       repository.RuleRepository
	HealthState repository.HealthStateRepository
	History     repository.ReadingHistoryRepository

	RuleSet *rules.RuleSet
	State   *state.Store
	Bus     *events.Bus
	Cleanup *cleanup.CleanupService
}

// New creates a new HubService instance
func New(
	vehicles repository.VehicleRepository,
	sensors repository.SensorRepository,
	ruleRepo repository.RuleRepository,
	healthState repository.HealthStateRepository,
	history repository.ReadingHistoryRepository,
	ruleSet *rules.RuleSet,
	store *state.Store,
	bus *events.Bus,
) *HubService {
	svc := &HubService{
		Vehicles:    vehicles,
		Sensors:     sensors,
		Rules:       ruleRepo,
		HealthState: healthState,
		History:     history,
		RuleSet:     ruleSet,
		State:       store,
		Bus:         bus,
	}
	svc.Cleanup = cleanup.New(sensors, history)
	return svc
}

// Validate checks if all required dependencies are initialized
func (s *HubService) Validate() error {
	if s.Vehicles == nil {
		return ErrMissingDependency("vehicles")
	}
	if s.Sensors == nil {
		return ErrMissingDependency("sensors")
	}
	if s.Rules == nil {
		return ErrMissingDependency("rules")
	}
	if s.History == nil {
		return ErrMissingDependency("history")
	}
	if s.RuleSet == nil {
		return ErrMissingDependency("ruleSet")
	}
	if s.State == nil {
		return ErrMissingDependency("state")
	}
	if s.Bus == nil {
		return ErrMissingDependency("bus")
	}
	return nil
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}
