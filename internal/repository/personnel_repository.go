package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/pkg/kvstore"
)

// PersonnelRepository persists directory identities in the key-value store.
type PersonnelRepository struct {
	store kvstore.Store
}

// NewPersonnelRepository constructs a PersonnelRepository.
func NewPersonnelRepository(store kvstore.Store) *PersonnelRepository {
	return &PersonnelRepository{store: store}
}

// FindByID fetches an identity by surrogate id.
func (r *PersonnelRepository) FindByID(ctx context.Context, id string) (*models.PersonnelIdentity, error) {
	raw, found, err := r.store.Get(ctx, PersonnelIdentityKey(id))
	if err != nil {
		return nil, fmt.Errorf("get personnel %s: %w", id, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	var identity models.PersonnelIdentity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("decode personnel %s: %w", id, err)
	}
	return &identity, nil
}

// FindByCode fetches an identity by its personnel code.
func (r *PersonnelRepository) FindByCode(ctx context.Context, code string) (*models.PersonnelIdentity, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].PersonnelCode == code {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// List returns every identity ordered by name, then code.
func (r *PersonnelRepository) List(ctx context.Context) ([]models.PersonnelIdentity, error) {
	keys, err := kvstore.KeysWithPrefix(ctx, r.store, PersonnelIdentityPrefix)
	if err != nil {
		return nil, fmt.Errorf("list personnel keys: %w", err)
	}
	identities := make([]models.PersonnelIdentity, 0, len(keys))
	for _, key := range keys {
		raw, found, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		if !found {
			continue
		}
		var identity models.PersonnelIdentity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		identities = append(identities, identity)
	}
	sort.SliceStable(identities, func(i, j int) bool {
		a, b := strings.ToLower(identities[i].FullName), strings.ToLower(identities[j].FullName)
		if a != b {
			return a < b
		}
		return identities[i].PersonnelCode < identities[j].PersonnelCode
	})
	return identities, nil
}

// Save inserts or replaces an identity, assigning an id when missing.
func (r *PersonnelRepository) Save(ctx context.Context, identity *models.PersonnelIdentity) error {
	stampIdentity(identity, time.Now().UTC())
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode personnel %s: %w", identity.ID, err)
	}
	if err := r.store.Set(ctx, PersonnelIdentityKey(identity.ID), string(payload)); err != nil {
		return fmt.Errorf("%w: save personnel %s: %w", ErrWriteFailed, identity.ID, err)
	}
	return nil
}

func stampIdentity(identity *models.PersonnelIdentity, now time.Time) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now
}
