// FilePath: internal/auth/auth.go
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// Access validates handshake tokens and checks vehicle ownership. Both
// collaborators are opaque to the pipeline: validate(token) -> userID and
// ownsVehicle(userID, vehicleID) -> yes/no.
type Access struct {
	secret   []byte
	issuer   string
	vehicles repository.VehicleRepository

	cacheTTL time.Duration
	cache    sync.Map // vehicleID+"\x00"+userID -> time.Time (expiry)
}

func NewAccess(cfg config.AuthConfig, vehicles repository.VehicleRepository) *Access {
	return &Access{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		vehicles: vehicles,
		cacheTTL: cfg.OwnershipTTL,
	}
}

// Authenticate validates a JWT and returns the subject user ID.
func (a *Access) Authenticate(ctx context.Context, token string) (string, error) {
	userID, _, err := a.Identify(ctx, token)
	return userID, err
}

// Identify validates a JWT and returns the subject user ID together with
// the roles granted by the token's "roles" claim. A token without a roles
// claim yields the plain user role.
func (a *Access) Identify(ctx context.Context, token string) (string, []string, error) {
	if token == "" {
		return "", nil, errors.NewAuthError("no token provided", nil)
	}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if a.issuer != "" {
		options = append(options, jwt.WithIssuer(a.issuer))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return "", nil, errors.NewAuthError("invalid token", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", nil, errors.NewAuthError("token has no subject", err)
	}
	return subject, rolesFromClaims(claims), nil
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return []string{"user"}
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if role, ok := r.(string); ok {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return []string{"user"}
	}
	return roles
}

// Authorize checks that the user may access the vehicle. A missing vehicle
// is a not-found error; a vehicle owned by someone else is forbidden.
// Positive answers are cached briefly so a chatty handshake burst does not
// hammer the vehicle table.
func (a *Access) Authorize(ctx context.Context, userID, vehicleID string) error {
	cacheKey := vehicleID + "\x00" + userID
	if raw, ok := a.cache.Load(cacheKey); ok {
		if expiry, ok := raw.(time.Time); ok && time.Now().Before(expiry) {
			return nil
		}
		a.cache.Delete(cacheKey)
	}

	vehicle, err := a.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.OwnerID != userID {
		return errors.NewAuthorizationError("vehicle belongs to another user", nil)
	}

	a.cache.Store(cacheKey, time.Now().Add(a.cacheTTL))
	return nil
}

// OwnerOf resolves the owning user of a vehicle, for notification routing.
func (a *Access) OwnerOf(ctx context.Context, vehicleID string) (string, error) {
	vehicle, err := a.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return "", err
	}
	return vehicle.OwnerID, nil
}
