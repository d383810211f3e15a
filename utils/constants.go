// File: utils/constants.go
package utils

import "time"

// Storage keys shared by the token store, favorites and the service charge cache.
const (
	AccessTokenKey   = "accessToken"
	RefreshTokenKey  = "refreshToken"
	FavoritesPrefix  = "favorites:"
	ServiceChargeKey = "bookitgy.service_charge_rate"
)

// DefaultServiceCharge is the percentage shown before the live value has ever been fetched.
const DefaultServiceCharge = 10.0

// AvailabilityWindowDays is the fixed forward window requested from the availability endpoint.
const AvailabilityWindowDays = 14

// DateLayout is the calendar day key format used by the availability endpoint.
const DateLayout = "2006-01-02"

// CacheTTL bounds how long a cached service charge is kept in Redis.
const CacheTTL = 30 * 24 * time.Hour
