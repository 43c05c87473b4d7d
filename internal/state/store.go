// FilePath: internal/state/store.go
package state

import (
	"sync"
	"time"

	"github.com/fleetpulse/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	shardCount      = 32
	mirrorQueueSize = 1024
)

type stateKey struct {
	vehicleID   string
	componentID string
}

type shard struct {
	mu     sync.Mutex
	states map[stateKey]*models.CurrentHealthState
}

// Mirror receives a copy of every committed health state, off the caller's
// goroutine. Implementations are best-effort; failures must stay internal.
type Mirror interface {
	Write(state models.CurrentHealthState)
}

// Store holds the single current health verdict per (vehicle, component).
// Keys are partitioned across shards so concurrent upserts for different
// pairs do not contend; upserts for the same pair serialize on the shard
// lock, which makes the read-previous-write-new step atomic per key.
//
// Mirror writes go through a single writer goroutine so the mirrors see
// committed states in commit order; per-upsert goroutines could race two
// rapid verdicts for the same key and leave the mirror holding the older
// one. The queue drops on overflow rather than backpressuring ingestion.
type Store struct {
	shards  [shardCount]*shard
	mirrors []Mirror

	mirrorQ  chan models.CurrentHealthState
	mirrorWG sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

func NewStore(mirrors ...Mirror) *Store {
	s := &Store{mirrors: mirrors}
	for i := range s.shards {
		s.shards[i] = &shard{states: make(map[stateKey]*models.CurrentHealthState)}
	}
	if len(mirrors) > 0 {
		s.mirrorQ = make(chan models.CurrentHealthState, mirrorQueueSize)
		s.mirrorWG.Add(1)
		go s.mirrorLoop()
	}
	return s
}

func (s *Store) mirrorLoop() {
	defer s.mirrorWG.Done()
	for committed := range s.mirrorQ {
		for _, m := range s.mirrors {
			m.Write(committed)
		}
	}
}

// Close stops the mirror writer after draining queued states. Upserts after
// Close still update the in-memory state but are no longer mirrored.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed || s.mirrorQ == nil {
		s.closed = true
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.mirrorQ)
	s.mirrorWG.Wait()
}

// Restore seeds the in-memory state from a persisted snapshot, without
// notifying mirrors. Called once at startup before traffic begins.
func (s *Store) Restore(states []models.CurrentHealthState) {
	for i := range states {
		st := states[i]
		key := stateKey{vehicleID: st.VehicleID, componentID: st.ComponentID}
		sh := s.shardFor(key)
		sh.mu.Lock()
		sh.states[key] = &st
		sh.mu.Unlock()
	}
}

func (s *Store) shardFor(key stateKey) *shard {
	// FNV-1a over both key parts
	h := uint32(2166136261)
	for _, b := range []byte(key.vehicleID) {
		h = (h ^ uint32(b)) * 16777619
	}
	for _, b := range []byte(key.componentID) {
		h = (h ^ uint32(b)) * 16777619
	}
	return s.shards[h%shardCount]
}

// Upsert writes the new verdict for a (vehicle, component) pair and returns
// the previous and current tiers so the caller can detect a transition
// without a second read. The first write for a pair reports TierUnknown as
// the previous tier.
func (s *Store) Upsert(vehicleID, componentID string, value float64, tier models.HealthTier) (previous, current models.HealthTier) {
	key := stateKey{vehicleID: vehicleID, componentID: componentID}
	sh := s.shardFor(key)

	sh.mu.Lock()
	prev := models.TierUnknown
	if existing, ok := sh.states[key]; ok {
		prev = existing.Tier
	}
	committed := &models.CurrentHealthState{
		VehicleID:   vehicleID,
		ComponentID: componentID,
		LastValue:   value,
		Tier:        tier,
		UpdatedAt:   time.Now().UTC(),
	}
	sh.states[key] = committed

	// enqueue under the shard lock so the mirror stream observes commits
	// for a key in commit order; the send never blocks
	if s.mirrorQ != nil {
		s.mu.RLock()
		if !s.closed {
			select {
			case s.mirrorQ <- *committed:
			default:
				nuts.L.Warnf("[StateStore] Mirror queue full, dropping state for vehicle %s component %s", vehicleID, componentID)
			}
		}
		s.mu.RUnlock()
	}
	sh.mu.Unlock()

	return prev, tier
}

// Get returns the current verdict for a pair, or nil when no reading has
// been seen for that component yet.
func (s *Store) Get(vehicleID, componentID string) *models.CurrentHealthState {
	key := stateKey{vehicleID: vehicleID, componentID: componentID}
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if existing, ok := sh.states[key]; ok {
		copied := *existing
		return &copied
	}
	return nil
}

// Aggregate computes the overall vehicle health as the worst tier among all
// of its components. An empty component set aggregates to EXCELLENT.
func (s *Store) Aggregate(vehicleID string) models.HealthTier {
	worst := models.TierExcellent
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, st := range sh.states {
			if key.vehicleID == vehicleID && st.Tier.WorseThan(worst) {
				worst = st.Tier
			}
		}
		sh.mu.Unlock()
	}
	return worst
}

// Snapshot returns a copy of every component state for a vehicle.
func (s *Store) Snapshot(vehicleID string) []models.CurrentHealthState {
	states := []models.CurrentHealthState{}
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, st := range sh.states {
			if key.vehicleID == vehicleID {
				states = append(states, *st)
			}
		}
		sh.mu.Unlock()
	}
	return states
}
