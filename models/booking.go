package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// Booking carries the service and provider fields as they were when the booking was made.
type Booking struct {
	ID               ID            `json:"id"`
	CustomerID       ID            `json:"customer_id,omitempty"`
	CustomerName     string        `json:"customer_name,omitempty"`
	ServiceID        ID            `json:"service_id"`
	ServiceName      string        `json:"service_name"`
	ServiceDuration  int           `json:"service_duration_minutes,omitempty"`
	ServicePrice     float64       `json:"service_price_gyd,omitempty"`
	ProviderID       ID            `json:"provider_id,omitempty"`
	ProviderName     string        `json:"provider_name,omitempty"`
	ProviderLocation string        `json:"provider_location,omitempty"`
	Start            time.Time     `json:"start_time"`
	End              time.Time     `json:"end_time"` // server-derived from start + duration
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
}

// IsTerminal reports whether no further client-side transition is allowed.
func (b Booking) IsTerminal() bool {
	return b.Status == BookingCancelled
}

// EffectiveStatus derives in_progress and completed from the clock for bookings that are not
// cancelled. A zero End falls back to Start.
func (b Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.Status == BookingCancelled || b.Status == BookingCompleted {
		return b.Status
	}
	if !b.Start.IsZero() {
		end := b.End
		if end.IsZero() {
			end = b.Start
		}
		switch {
		case !now.Before(end):
			return BookingCompleted
		case !now.Before(b.Start):
			return BookingInProgress
		}
	}
	if b.Status == "" {
		return BookingPending
	}
	return b.Status
}
