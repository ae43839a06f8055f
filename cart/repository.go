package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
	"github.com/Eakan-Git/Bookworm/pkg/localstate"
)

// registryKey is the local-state key the registry lives under. The name is
// carried over from the original persisted payload so upgraded installs
// find their old cart.
const registryKey = "cart-store"

// schemaVersion is the current persisted registry schema. Version 1 was a
// single flat cart with no guest/user split; it is migrated into the guest
// cart on load.
const schemaVersion = 2

// RegistryRepository persists and restores the cart registry.
type RegistryRepository interface {
	Load(ctx context.Context) (*Registry, error)
	Save(ctx context.Context, reg *Registry) error
}

// persistedRegistry is the on-disk envelope for the current schema.
type persistedRegistry struct {
	Version      int           `json:"version"`
	Guest        Cart          `json:"guest"`
	Users        map[int]*Cart `json:"users"`
	ActiveUserID int           `json:"active_user_id"`
}

// legacyRegistry is the v1 shape: one anonymous cart, no selector.
type legacyRegistry struct {
	Cart []Line `json:"cart"`
}

// StateRepository stores the registry as JSON in a localstate.Store.
type StateRepository struct {
	store  localstate.Store
	logger *slog.Logger
}

// NewStateRepository creates a registry repository over the given store.
func NewStateRepository(store localstate.Store, logger *slog.Logger) *StateRepository {
	return &StateRepository{store: store, logger: logger}
}

// Load restores the registry. A never-written key yields a fresh empty
// registry; a v1 payload is migrated; an unreadable or future-versioned
// payload is discarded with a warning rather than guessed at.
func (r *StateRepository) Load(ctx context.Context) (*Registry, error) {
	data, err := r.store.Get(ctx, registryKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("load cart registry: %w", err)
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		r.logger.WarnContext(ctx, "discarding unreadable cart registry payload",
			slog.String("error", err.Error()),
		)
		return NewRegistry(), nil
	}

	switch probe.Version {
	case 0:
		return r.migrateLegacy(ctx, data), nil
	case schemaVersion:
		var p persistedRegistry
		if err := json.Unmarshal(data, &p); err != nil {
			r.logger.WarnContext(ctx, "discarding malformed cart registry payload",
				slog.String("error", err.Error()),
			)
			return NewRegistry(), nil
		}
		reg := &Registry{
			Guest:        p.Guest,
			Users:        p.Users,
			ActiveUserID: p.ActiveUserID,
		}
		if reg.Users == nil {
			reg.Users = make(map[int]*Cart)
		}
		return reg, nil
	default:
		r.logger.WarnContext(ctx, "discarding cart registry with unknown schema version",
			slog.Int("version", probe.Version),
		)
		return NewRegistry(), nil
	}
}

// migrateLegacy lifts a v1 flat cart into the guest cart of a v2 registry.
func (r *StateRepository) migrateLegacy(ctx context.Context, data []byte) *Registry {
	var legacy legacyRegistry
	if err := json.Unmarshal(data, &legacy); err != nil || legacy.Cart == nil {
		r.logger.WarnContext(ctx, "discarding unrecognized legacy cart payload")
		return NewRegistry()
	}

	reg := NewRegistry()
	reg.Guest = Cart{Lines: legacy.Cart}
	r.logger.InfoContext(ctx, "migrated legacy cart payload",
		slog.Int("lines", len(legacy.Cart)),
	)
	return reg
}

// Save persists the registry under the current schema version.
func (r *StateRepository) Save(ctx context.Context, reg *Registry) error {
	p := persistedRegistry{
		Version:      schemaVersion,
		Guest:        reg.Guest,
		Users:        reg.Users,
		ActiveUserID: reg.ActiveUserID,
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal cart registry: %w", err)
	}

	if err := r.store.Set(ctx, registryKey, data); err != nil {
		return fmt.Errorf("save cart registry: %w", err)
	}
	return nil
}
