package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"pyquest/internal/logx"
	"pyquest/internal/models"
)

// StoreKeyPrefix namespaces every profile's store document
const StoreKeyPrefix = "pyquest:store:"

// ErrCorruptStore marks a store document that could not be decoded. Load still
// returns a usable empty store alongside it.
var ErrCorruptStore = errors.New("corrupt store document")

// StoreRepository reads and writes whole Store documents through a KV
type StoreRepository struct {
	kv      KV
	corrupt atomic.Int64
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(kv KV) *StoreRepository {
	return &StoreRepository{kv: kv}
}

// StoreKey returns the storage key for a profile
func StoreKey(profileID string) string {
	return StoreKeyPrefix + profileID
}

// Load returns the profile's store, or an empty one if nothing was saved yet.
// An undecodable document is copied aside under a ":corrupt:" key, logged and
// reported with ErrCorruptStore next to an empty store.
func (r *StoreRepository) Load(ctx context.Context, profileID string) (*models.Store, error) {
	key := StoreKey(profileID)
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if !ok {
		return models.NewStore(), nil
	}

	store, err := DecodeStore([]byte(raw))
	if err != nil {
		r.corrupt.Add(1)
		aside := fmt.Sprintf("%s:corrupt:%d", key, time.Now().UnixNano())
		if setErr := r.kv.Set(ctx, aside, raw); setErr != nil {
			logx.Error(setErr, "Failed to preserve corrupt store", "profile", profileID)
		}
		logx.Warn("Corrupt store document replaced by an empty store",
			"profile", profileID, "preserved_as", aside, "error", err.Error())
		return models.NewStore(), fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return store, nil
}

// Save writes the whole store document
func (r *StoreRepository) Save(ctx context.Context, profileID string, store *models.Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := r.kv.Set(ctx, StoreKey(profileID), string(data)); err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

// Profiles lists the IDs of every profile with a saved store
func (r *StoreRepository) Profiles(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, StoreKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, StoreKeyPrefix)
		if strings.Contains(id, ":") {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CorruptLoads reports how many loads hit an undecodable document
func (r *StoreRepository) CorruptLoads() int64 {
	return r.corrupt.Load()
}

// DecodeStore parses a store document and fills in missing collections
func DecodeStore(data []byte) (*models.Store, error) {
	var store models.Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, err
	}
	if store.Users == nil {
		store.Users = []models.User{}
	}
	for i := range store.Users {
		u := &store.Users[i]
		if u.ID == "" {
			return nil, fmt.Errorf("user %d has no id", i)
		}
		if u.Progress.CompletedLevels == nil {
			u.Progress.CompletedLevels = []models.CompletedLevel{}
		}
		if u.Progress.Achievements == nil {
			u.Progress.Achievements = []string{}
		}
	}
	if store.CurrentUser != nil && store.FindByID(*store.CurrentUser) == nil {
		store.CurrentUser = nil
	}
	return &store, nil
}
