package booking

import (
	"context"
	"time"

	"bookitgy/models"
)

// Scope selects whose bookings a store holds.
type Scope string

const (
	CustomerScope Scope = "customer"
	ProviderScope Scope = "provider"
)

// ConfirmFunc asks the user to acknowledge a cancellation. Returning false aborts it.
type ConfirmFunc func(b models.Booking) bool

// BookingStore keeps the bookings visible to the signed-in customer or provider.
type BookingStore interface {
	Refresh(ctx context.Context) error
	Bookings() []models.Booking
	Get(id models.ID) (models.Booking, bool)
	Cancel(ctx context.Context, id models.ID, confirm ConfirmFunc) error
	Create(ctx context.Context, serviceID models.ID, start time.Time) (*models.Booking, error)
	Today(ctx context.Context) ([]models.Booking, error)
	Upcoming(ctx context.Context) ([]models.Booking, error)
}
