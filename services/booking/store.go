package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/services/mutation"

	"go.uber.org/zap"
)

// DefaultBookingStore implements BookingStore over the bookings API. Local rows are only ever
// status-transitioned or appended; a refresh replaces the list with the server's unless a
// mutation landed while it was in flight.
type DefaultBookingStore struct {
	api    *api.Client
	coord  *mutation.Coordinator
	scope  Scope
	now    func() time.Time
	logger *zap.Logger

	mu       sync.RWMutex
	bookings []models.Booking
	// generation counts confirmed mutations. A refresh that saw it move is stale.
	generation uint64
}

func NewBookingStore(apiClient *api.Client, coord *mutation.Coordinator, scope Scope, logger *zap.Logger) *DefaultBookingStore {
	if logger == nil {
		logger = zap.L()
	}
	if coord == nil {
		coord = mutation.NewCoordinator(logger)
	}
	return &DefaultBookingStore{
		api:    apiClient,
		coord:  coord,
		scope:  scope,
		now:    time.Now,
		logger: logger.With(zap.String("scope", string(scope))),
	}
}

func (s *DefaultBookingStore) listPath() string {
	if s.scope == ProviderScope {
		return "/providers/me/bookings"
	}
	return "/bookings/me"
}

func (s *DefaultBookingStore) cancelPath(id models.ID) string {
	escaped := url.PathEscape(id.String())
	if s.scope == ProviderScope {
		return "/providers/me/bookings/" + escaped + "/cancel"
	}
	return "/bookings/" + escaped + "/cancel"
}

func (s *DefaultBookingStore) fetch(ctx context.Context, path string) ([]models.Booking, error) {
	raw, err := s.api.DoRaw(ctx, api.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	rows, err := api.DecodeList[models.Booking](raw, "bookings", "data")
	if err != nil {
		return nil, fmt.Errorf("bookings: %w", err)
	}
	return rows, nil
}

// Refresh replaces the local list with the server's. The response is dropped when a cancel
// or create was confirmed after the request went out, since it may predate that change.
func (s *DefaultBookingStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	rows, err := s.fetch(ctx, s.listPath())
	if err != nil {
		return err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Start.Before(rows[j].Start) })

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale bookings refresh", zap.Int("count", len(rows)))
		return nil
	}
	s.bookings = rows
	s.mu.Unlock()
	s.logger.Debug("Bookings refreshed", zap.Int("count", len(rows)))
	return nil
}

// Bookings returns a copy of the list with statuses derived from the current time.
func (s *DefaultBookingStore) Bookings() []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return withEffectiveStatus(s.bookings, s.now())
}

func (s *DefaultBookingStore) Get(id models.ID) (models.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ID == id {
			b.Status = b.EffectiveStatus(s.now())
			return b, true
		}
	}
	return models.Booking{}, false
}

// Today returns the provider's bookings for the current day.
func (s *DefaultBookingStore) Today(ctx context.Context) ([]models.Booking, error) {
	if s.scope != ProviderScope {
		return nil, ErrProviderScope
	}
	rows, err := s.fetch(ctx, "/providers/me/bookings/today")
	if err != nil {
		return nil, err
	}
	return withEffectiveStatus(rows, s.now()), nil
}

// Upcoming returns the provider's future bookings.
func (s *DefaultBookingStore) Upcoming(ctx context.Context) ([]models.Booking, error) {
	if s.scope != ProviderScope {
		return nil, ErrProviderScope
	}
	rows, err := s.fetch(ctx, "/providers/me/bookings/upcoming")
	if err != nil {
		return nil, err
	}
	return withEffectiveStatus(rows, s.now()), nil
}

// Cancel cancels a booking once confirm acknowledges it. A booking missing from the local list
// triggers one refresh before NotFoundError. A cancel already in flight for the same booking
// returns mutation.ErrInFlight and a cancelled booking ErrAlreadyCancelled, both without a
// request. A failed request leaves the booking untouched.
func (s *DefaultBookingStore) Cancel(ctx context.Context, id models.ID, confirm ConfirmFunc) error {
	key := "cancel:" + id.String()
	if s.coord.InFlight(key) {
		return mutation.ErrInFlight
	}

	current, ok := s.Get(id)
	if !ok {
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		if current, ok = s.Get(id); !ok {
			return &NotFoundError{ID: id.String()}
		}
	}
	if current.IsTerminal() {
		return ErrAlreadyCancelled
	}
	if confirm == nil || !confirm(current) {
		return ErrNotConfirmed
	}

	_, err := mutation.Run(ctx, s.coord, mutation.Mutation[json.RawMessage]{
		Key: key,
		Send: func(ctx context.Context) (json.RawMessage, error) {
			// Re-checked under the key: a cancel may have completed after the first check.
			if b, ok := s.Get(id); ok && b.IsTerminal() {
				return nil, ErrAlreadyCancelled
			}
			return s.api.DoRaw(ctx, api.Request{Method: http.MethodPost, Path: s.cancelPath(id)})
		},
		Confirm: func(raw json.RawMessage) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.generation++
			for i := range s.bookings {
				if s.bookings[i].ID == id {
					s.bookings[i].Status = models.BookingCancelled
				}
			}
		},
		// A cancel response is final; no refetch is needed to learn the new status.
		Authoritative: func(json.RawMessage) bool { return true },
	})
	if err != nil {
		s.logger.Warn("Cancel failed", zap.String("bookingID", id.String()), zap.Error(err))
		return err
	}
	s.logger.Info("Booking cancelled", zap.String("bookingID", id.String()))
	return nil
}

// Create books serviceID at start. Nothing is inserted before the server answers; the
// returned row is appended on success.
func (s *DefaultBookingStore) Create(ctx context.Context, serviceID models.ID, start time.Time) (*models.Booking, error) {
	if serviceID == "" {
		return nil, fmt.Errorf("service id is required")
	}
	key := "create:" + serviceID.String() + "@" + start.UTC().Format(time.RFC3339)

	out, err := mutation.Run(ctx, s.coord, mutation.Mutation[*models.Booking]{
		Key: key,
		Send: func(ctx context.Context) (*models.Booking, error) {
			var created models.Booking
			err := s.api.Do(ctx, api.Request{
				Method: http.MethodPost,
				Path:   "/bookings",
				JSON: map[string]any{
					"service_id": serviceID.Wire(),
					"start_time": start.UTC().Format(time.RFC3339),
				},
			}, &created)
			if err != nil {
				return nil, err
			}
			return &created, nil
		},
		Confirm: func(b *models.Booking) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.generation++
			if b.ID != "" {
				s.bookings = append(s.bookings, *b)
			}
		},
		Authoritative: func(b *models.Booking) bool { return b.ID != "" },
		Refetch:       s.Refresh,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Booking created", zap.String("bookingID", out.Result.ID.String()))
	return out.Result, nil
}

func withEffectiveStatus(rows []models.Booking, now time.Time) []models.Booking {
	out := make([]models.Booking, len(rows))
	for i, b := range rows {
		b.Status = b.EffectiveStatus(now)
		out[i] = b
	}
	return out
}
