package geo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookitgy/models"
)

var (
	ErrLocationDenied = errors.New("location permission denied")
	ErrInvalidRadius  = errors.New("unsupported radius")
)

// RadiusOptions are the selectable radii in km. 0 means any distance.
var RadiusOptions = []float64{0, 2, 5, 10, 25, 50}

// LocationRequester asks the device for the client location, prompting for permission. It
// returns ErrLocationDenied when the user refuses.
type LocationRequester func(ctx context.Context) (models.Coordinate, error)

// FilterState is a copy of the radius filter state.
type FilterState struct {
	RadiusKm  float64            `json:"radius_km"`
	Active    bool               `json:"active"` // filtering is in effect
	Origin    *models.Coordinate `json:"origin,omitempty"`
	Requested bool               `json:"permission_requested"`
	Error     string             `json:"error,omitempty"`
}

// RadiusFilter is the radius selection state machine. The first positive radius asks for the
// location once. A denial is kept as the filter error and the filter lets everything through
// until RetryPermission succeeds or the radius goes back to "any", which also re-arms the
// one-time request.
type RadiusFilter struct {
	request LocationRequester

	mu        sync.Mutex
	radius    float64
	origin    *models.Coordinate
	requested bool
	err       error
}

func NewRadiusFilter(request LocationRequester) *RadiusFilter {
	return &RadiusFilter{request: request}
}

func validRadius(km float64) bool {
	for _, r := range RadiusOptions {
		if r == km {
			return true
		}
	}
	return false
}

// SetOrigin records a location the client shared without a prompt.
func (f *RadiusFilter) SetOrigin(c models.Coordinate) {
	if !c.Valid() {
		return
	}
	f.mu.Lock()
	f.origin = &c
	f.err = nil
	f.mu.Unlock()
}

// SetRadius selects km. It returns the filter error when the location is unavailable.
func (f *RadiusFilter) SetRadius(ctx context.Context, km float64) error {
	if !validRadius(km) {
		return fmt.Errorf("%w: %v km", ErrInvalidRadius, km)
	}

	f.mu.Lock()
	f.radius = km
	if km == 0 {
		f.err = nil
		f.requested = false
		f.mu.Unlock()
		return nil
	}
	if f.origin != nil {
		f.mu.Unlock()
		return nil
	}
	if f.requested {
		err := f.err
		f.mu.Unlock()
		return err
	}
	f.requested = true
	f.mu.Unlock()

	return f.ask(ctx)
}

// RetryPermission asks for the location again regardless of earlier answers.
func (f *RadiusFilter) RetryPermission(ctx context.Context) error {
	f.mu.Lock()
	f.requested = true
	f.mu.Unlock()
	return f.ask(ctx)
}

func (f *RadiusFilter) ask(ctx context.Context) error {
	if f.request == nil {
		f.mu.Lock()
		f.err = ErrLocationDenied
		f.mu.Unlock()
		return ErrLocationDenied
	}

	loc, err := f.request(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil && !loc.Valid() {
		err = errors.New("invalid location")
	}
	if err != nil {
		if !errors.Is(err, ErrLocationDenied) {
			err = fmt.Errorf("%w: %v", ErrLocationDenied, err)
		}
		f.err = err
		return err
	}
	f.origin = &loc
	f.err = nil
	return nil
}

// Apply annotates providers with distances and, when a radius is in effect, filters and sorts
// them. Without a usable location every provider passes.
func (f *RadiusFilter) Apply(providers []models.Provider) []Ranked {
	f.mu.Lock()
	origin, radius, err := f.origin, f.radius, f.err
	f.mu.Unlock()

	rows := Annotate(origin, providers)
	if origin == nil {
		return rows
	}
	if radius > 0 && err == nil {
		rows = FilterWithin(rows, radius)
	}
	return SortByDistance(rows)
}

func (f *RadiusFilter) State() FilterState {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := FilterState{
		RadiusKm:  f.radius,
		Active:    f.radius > 0 && f.origin != nil && f.err == nil,
		Requested: f.requested,
	}
	if f.origin != nil {
		o := *f.origin
		st.Origin = &o
	}
	if f.err != nil {
		st.Error = f.err.Error()
	}
	return st
}
