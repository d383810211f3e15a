package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// FallbackStore prefers the primary store and uses the secondary when the primary fails.
// Reads that miss in the primary are served from the secondary.
type FallbackStore struct {
	primary   KeyValueStore
	secondary KeyValueStore
	logger    *zap.Logger
}

func NewFallbackStore(primary, secondary KeyValueStore, logger *zap.Logger) *FallbackStore {
	if logger == nil {
		logger = zap.L()
	}
	return &FallbackStore{primary: primary, secondary: secondary, logger: logger}
}

func (s *FallbackStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("Primary store read failed, using fallback", zap.String("key", key), zap.Error(err))
	}
	return s.secondary.Get(ctx, key)
}

// Set writes to the primary store. On failure the value goes to the secondary store instead.
// A successful primary write removes any stale copy from the secondary.
func (s *FallbackStore) Set(ctx context.Context, key, value string) error {
	if err := s.primary.Set(ctx, key, value); err != nil {
		s.logger.Warn("Primary store write failed, using fallback", zap.String("key", key), zap.Error(err))
		if ferr := s.secondary.Set(ctx, key, value); ferr != nil {
			return fmt.Errorf("storage: primary: %v; fallback: %w", err, ferr)
		}
		return nil
	}
	if err := s.secondary.Delete(ctx, key); err != nil {
		s.logger.Debug("Failed to clear fallback copy", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Delete removes keys from both stores.
func (s *FallbackStore) Delete(ctx context.Context, keys ...string) error {
	perr := s.primary.Delete(ctx, keys...)
	serr := s.secondary.Delete(ctx, keys...)
	return errors.Join(perr, serr)
}
