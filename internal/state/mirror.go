// FilePath: internal/state/mirror.go
package state

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/repository"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const mirrorTimeout = 3 * time.Second

// RedisMirror keeps a per-vehicle health hash in Redis so dashboards and
// sibling services can read live state without touching this process. The
// hash expires if the vehicle goes quiet.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl}
}

func (m *RedisMirror) Write(state models.CurrentHealthState) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	key := fmt.Sprintf("vehicle:%s:health", state.VehicleID)

	pipe := m.client.Pipeline()
	pipe.HSet(ctx, key, state.ComponentID, string(state.Tier))
	pipe.HSet(ctx, key, state.ComponentID+":value", state.LastValue)
	pipe.HSet(ctx, key, state.ComponentID+":updated_at", state.UpdatedAt.Unix())
	pipe.Expire(ctx, key, m.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		nuts.L.Warnf("[RedisMirror] Failed to mirror health state for vehicle %s: %v", state.VehicleID, err)
	}
}

// RepoMirror write-behinds the current verdict into the relational snapshot
// table. Failures are logged, never propagated to the ingestion path.
type RepoMirror struct {
	repo repository.HealthStateRepository
}

func NewRepoMirror(repo repository.HealthStateRepository) *RepoMirror {
	return &RepoMirror{repo: repo}
}

func (m *RepoMirror) Write(state models.CurrentHealthState) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if err := m.repo.Upsert(ctx, &state); err != nil {
		nuts.L.Warnf("[RepoMirror] Failed to persist health state for vehicle %s component %s: %v",
			state.VehicleID, state.ComponentID, err)
	}
}
