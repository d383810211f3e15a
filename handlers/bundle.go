package handlers

import (
	"bookitgy/services/auth"
	"bookitgy/services/availability"
	"bookitgy/services/billing"
	"bookitgy/services/booking"
	"bookitgy/services/directory"
	"bookitgy/services/favorites"
	"bookitgy/services/geo"
	"bookitgy/services/provider"
)

// HandlerBundle groups the client components the console endpoints drive.
type HandlerBundle struct {
	Auth      *auth.Service
	Directory *directory.Client
	Selector  *availability.Selector
	Radius    *geo.RadiusFilter
	Favorites *favorites.Store

	// Bookings of the signed-in customer, and of the signed-in provider.
	CustomerBookings booking.BookingStore
	ProviderBookings booking.BookingStore

	Catalog       provider.ProviderCatalog
	Billing       *billing.Service
	ServiceCharge *billing.ServiceChargeService
}
