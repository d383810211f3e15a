package models

// Provider is a read-only directory snapshot of a service provider.
type Provider struct {
	ID          ID       `json:"provider_id"`
	Name        string   `json:"name"`
	Username    string   `json:"username,omitempty"`
	Professions []string `json:"professions"`
	Latitude    *float64 `json:"lat"`  // nullable independently of Longitude
	Longitude   *float64 `json:"long"` // nullable independently of Latitude
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Location    string   `json:"location,omitempty"` // free-text display location
	Suspended   bool     `json:"is_suspended"`
}

// Coordinate returns the provider location when both components are present and finite.
func (p Provider) Coordinate() (Coordinate, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinate{}, false
	}
	c := Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}
	if !c.Valid() {
		return Coordinate{}, false
	}
	return c, true
}

// Service belongs to exactly one provider.
type Service struct {
	ID              ID      `json:"id"`
	ProviderID      ID      `json:"provider_id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price_gyd"` // whole GYD
	Description     string  `json:"description"`
}

// ServiceInput is the create payload of a provider service.
type ServiceInput struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price_gyd"`
	DurationMinutes int     `json:"duration_minutes"`
}

// AvailabilityDay pairs a calendar date with its open slot start instants.
type AvailabilityDay struct {
	Date  string   `json:"date"`  // YYYY-MM-DD
	Slots []string `json:"slots"` // ISO 8601 instants
}
