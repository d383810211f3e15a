package geo

import (
	"fmt"
	"math"
	"sort"

	"bookitgy/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in km between a and b.
func Haversine(a, b models.Coordinate) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	lat1Rad := a.Latitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Ranked is a provider with its distance from the client. DistanceKm is nil when either side
// has no usable location.
type Ranked struct {
	models.Provider
	DistanceKm *float64 `json:"distance_km"`
	Distance   string   `json:"distance_label"`
}

// Annotate computes the distance of every provider from origin. A nil origin leaves every
// distance unknown.
func Annotate(origin *models.Coordinate, providers []models.Provider) []Ranked {
	out := make([]Ranked, len(providers))
	for i, p := range providers {
		out[i] = Ranked{Provider: p}
		if origin == nil || !origin.Valid() {
			continue
		}
		if loc, ok := p.Coordinate(); ok {
			d := Haversine(*origin, loc)
			out[i].DistanceKm = &d
			out[i].Distance = FormatDistance(&d)
		}
	}
	return out
}

// FilterWithin keeps the rows with a known distance of at most radiusKm. A radius <= 0 returns
// rows unchanged.
func FilterWithin(rows []Ranked, radiusKm float64) []Ranked {
	if radiusKm <= 0 {
		return rows
	}
	out := make([]Ranked, 0, len(rows))
	for _, r := range rows {
		if r.DistanceKm != nil && *r.DistanceKm <= radiusKm {
			out = append(out, r)
		}
	}
	return out
}

// SortByDistance returns a copy ordered nearest first. Unknown distances go last, in their
// original order.
func SortByDistance(rows []Ranked) []Ranked {
	out := append([]Ranked(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DistanceKm, out[j].DistanceKm
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	return out
}

// FormatDistance renders one decimal under 10 km and whole km above. Unknown is "".
func FormatDistance(km *float64) string {
	if km == nil || math.IsNaN(*km) || math.IsInf(*km, 0) {
		return ""
	}
	if *km < 10 {
		return fmt.Sprintf("%.1f km", *km)
	}
	return fmt.Sprintf("%.0f km", math.Round(*km))
}
