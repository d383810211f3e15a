package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/utils"

	"go.uber.org/zap"
)

var (
	ErrDateUnavailable     = errors.New("no availability on that date")
	ErrSlotUnavailable     = errors.New("slot is not available on the selected date")
	ErrIncompleteSelection = errors.New("select a provider, service and time first")
)

// Directory is the part of the directory client the selector reads from.
type Directory interface {
	ProviderServices(ctx context.Context, providerID models.ID) ([]models.Service, error)
	Availability(ctx context.Context, providerID, serviceID models.ID, days int) ([]models.AvailabilityDay, error)
}

// Booker creates bookings.
type Booker interface {
	Create(ctx context.Context, serviceID models.ID, start time.Time) (*models.Booking, error)
}

// Options configures a Selector. Zero values fall back to the defaults.
type Options struct {
	Location *time.Location
	Days     int
	Now      func() time.Time
	Logger   *zap.Logger
}

// Selector tracks a provider -> service -> date -> slot selection against the live availability
// of the selected service. Changing a level clears every level below it before any fetch for
// the new selection starts. Fetch results that arrive for a superseded selection are dropped.
type Selector struct {
	dir    Directory
	booker Booker
	loc    *time.Location
	days   int
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	provider *models.Provider
	service  *models.Service
	date     string
	slot     string

	services    []models.Service
	slotsByDate map[string][]string

	servicesErr     string
	availabilityErr string

	// Incremented whenever a fetch is started or its target is invalidated.
	servicesSeq     uint64
	availabilitySeq uint64
	servicesBusy    bool
	availBusy       bool
}

func NewSelector(dir Directory, booker Booker, opts Options) *Selector {
	s := &Selector{
		dir:         dir,
		booker:      booker,
		loc:         opts.Location,
		days:        opts.Days,
		now:         opts.Now,
		logger:      opts.Logger,
		slotsByDate: map[string][]string{},
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.days <= 0 {
		s.days = utils.AvailabilityWindowDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.L()
	}
	return s
}

// SelectProvider clears service, date and slot, then loads the provider's services. A zero
// provider clears the whole selection. Failures are recorded in the snapshot, not returned.
func (s *Selector) SelectProvider(ctx context.Context, provider models.Provider) {
	s.mu.Lock()
	s.service = nil
	s.date = ""
	s.slot = ""
	s.services = nil
	s.slotsByDate = map[string][]string{}
	s.servicesErr = ""
	s.availabilityErr = ""
	s.availabilitySeq++
	s.availBusy = false
	s.servicesSeq++
	if provider.ID == "" {
		s.provider = nil
		s.servicesBusy = false
		s.mu.Unlock()
		return
	}
	p := provider
	s.provider = &p
	seq := s.servicesSeq
	s.servicesBusy = true
	s.mu.Unlock()

	services, err := s.dir.ProviderServices(ctx, provider.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.servicesSeq || s.provider == nil || s.provider.ID != provider.ID {
		s.logger.Debug("Discarding stale services response", zap.String("providerID", provider.ID.String()))
		return
	}
	s.servicesBusy = false
	if err != nil {
		s.services = []models.Service{}
		s.servicesErr = api.Message(err, "Could not load services.")
		s.logger.Warn("Failed to load provider services", zap.String("providerID", provider.ID.String()), zap.Error(err))
		return
	}
	s.services = services
}

// SelectService clears date and slot, then loads availability. It does nothing while no
// provider is selected.
func (s *Selector) SelectService(ctx context.Context, service models.Service) {
	s.mu.Lock()
	if s.provider == nil {
		s.mu.Unlock()
		return
	}
	svc := service
	s.service = &svc
	s.date = ""
	s.slot = ""
	s.slotsByDate = map[string][]string{}
	s.availabilityErr = ""
	s.availabilitySeq++
	s.mu.Unlock()

	s.loadAvailability(ctx)
}

// Refresh reloads availability for the current provider and service.
func (s *Selector) Refresh(ctx context.Context) {
	s.loadAvailability(ctx)
}

func (s *Selector) loadAvailability(ctx context.Context) {
	s.mu.Lock()
	if s.provider == nil || s.service == nil {
		s.mu.Unlock()
		return
	}
	providerID, serviceID := s.provider.ID, s.service.ID
	s.availabilitySeq++
	seq := s.availabilitySeq
	s.availBusy = true
	s.mu.Unlock()

	days, err := s.dir.Availability(ctx, providerID, serviceID, s.days)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.availabilitySeq || s.provider == nil || s.service == nil ||
		s.provider.ID != providerID || s.service.ID != serviceID {
		s.logger.Debug("Discarding stale availability response",
			zap.String("providerID", providerID.String()),
			zap.String("serviceID", serviceID.String()),
		)
		return
	}
	s.availBusy = false

	// Rebuilt in full on every fetch.
	slotsByDate := make(map[string][]string, len(days))
	if err != nil {
		s.slotsByDate = slotsByDate
		s.availabilityErr = api.Message(err, "Could not load availability.")
		s.logger.Warn("Failed to load availability", zap.Error(err))
		return
	}
	for _, day := range days {
		if len(day.Slots) == 0 {
			continue
		}
		slots := append([]string(nil), day.Slots...)
		sort.Strings(slots)
		slotsByDate[day.Date] = slots
	}
	s.slotsByDate = slotsByDate
	s.availabilityErr = ""

	if s.date != "" && len(slotsByDate[s.date]) == 0 {
		s.date = ""
		s.slot = ""
	}
	if s.slot != "" && !containsSlot(slotsByDate[s.date], s.slot) {
		s.slot = ""
	}
}

// SelectDate selects a date that has at least one open slot and clears the slot.
func (s *Selector) SelectDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.slotsByDate[date]) == 0 {
		return fmt.Errorf("%w: %s", ErrDateUnavailable, date)
	}
	s.date = date
	s.slot = ""
	return nil
}

// SelectSlot selects a slot of the selected date.
func (s *Selector) SelectSlot(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.date == "" {
		return fmt.Errorf("%w: no date selected", ErrSlotUnavailable)
	}
	match, ok := findSlot(s.slotsByDate[s.date], slot)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSlotUnavailable, slot)
	}
	s.slot = match
	return nil
}

// BookSelectedSlot books the selected slot. On success only the slot is cleared. Availability
// is reloaded either way since a failure may mean the slot was just taken.
func (s *Selector) BookSelectedSlot(ctx context.Context) (*models.Booking, error) {
	s.mu.Lock()
	if s.provider == nil || s.service == nil || s.slot == "" {
		s.mu.Unlock()
		return nil, ErrIncompleteSelection
	}
	providerID, serviceID, slot := s.provider.ID, s.service.ID, s.slot
	s.mu.Unlock()

	start, err := parseSlot(slot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}

	booking, err := s.booker.Create(ctx, serviceID, start)
	if err == nil {
		s.mu.Lock()
		if s.provider != nil && s.service != nil && s.provider.ID == providerID &&
			s.service.ID == serviceID && s.slot == slot {
			s.slot = ""
		}
		s.mu.Unlock()
		s.logger.Info("Slot booked",
			zap.String("providerID", providerID.String()),
			zap.String("serviceID", serviceID.String()),
			zap.String("slot", slot),
		)
	}

	s.loadAvailability(ctx)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func parseSlot(slot string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, slot); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid slot time %q", slot)
}

func findSlot(slots []string, want string) (string, bool) {
	for _, s := range slots {
		if s == want {
			return s, true
		}
	}
	wantTime, err := parseSlot(want)
	if err != nil {
		return "", false
	}
	for _, s := range slots {
		if t, err := parseSlot(s); err == nil && t.Equal(wantTime) {
			return s, true
		}
	}
	return "", false
}

func containsSlot(slots []string, slot string) bool {
	_, ok := findSlot(slots, slot)
	return ok
}
