package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"bookitgy/models"
	"bookitgy/services/storage"
	"bookitgy/utils"

	"go.uber.org/zap"
)

var ErrNoUser = errors.New("favorites: no signed-in user")

// Store keeps each user's favorite provider ids on the device. It never talks to the server.
type Store struct {
	kv     storage.KeyValueStore
	logger *zap.Logger
	mu     sync.Mutex
}

func NewStore(kv storage.KeyValueStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.L()
	}
	return &Store{kv: kv, logger: logger}
}

func key(userID string) string {
	return utils.FavoritesPrefix + userID
}

// Load returns the user's favorite ids in insertion order. A corrupt value reads as empty.
func (s *Store) Load(ctx context.Context, userID string) ([]models.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

func (s *Store) load(ctx context.Context, userID string) ([]models.ID, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	raw, err := s.kv.Get(ctx, key(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return []models.ID{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	var ids []models.ID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Warn("Discarding unreadable favorites", zap.String("user", userID), zap.Error(err))
		return []models.ID{}, nil
	}
	return dedupe(ids), nil
}

func (s *Store) save(ctx context.Context, userID string, ids []models.ID) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key(userID), string(data)); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

// Toggle flips providerID and reports whether it is now a favorite.
func (s *Store) Toggle(ctx context.Context, userID string, providerID models.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	if i := indexOf(ids, providerID); i >= 0 {
		ids = append(ids[:i], ids[i+1:]...)
		return false, s.save(ctx, userID, ids)
	}
	return true, s.save(ctx, userID, append(ids, providerID))
}

func (s *Store) Add(ctx context.Context, userID string, providerID models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if indexOf(ids, providerID) >= 0 {
		return nil
	}
	return s.save(ctx, userID, append(ids, providerID))
}

func (s *Store) Remove(ctx context.Context, userID string, providerID models.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	i := indexOf(ids, providerID)
	if i < 0 {
		return nil
	}
	return s.save(ctx, userID, append(ids[:i], ids[i+1:]...))
}

// Resolve maps ids onto the live provider list for display. Ids with no live provider are left
// out of the result but stay in the stored set.
func Resolve(ids []models.ID, live []models.Provider) []models.Provider {
	byID := make(map[models.ID]models.Provider, len(live))
	for _, p := range live {
		byID[p.ID] = p
	}
	out := make([]models.Provider, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func indexOf(ids []models.ID, id models.ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func dedupe(ids []models.ID) []models.ID {
	seen := make(map[models.ID]struct{}, len(ids))
	out := make([]models.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
