package availability

import (
	"time"

	"bookitgy/models"
	"bookitgy/utils"
)

// CalendarDay is one day of the booking window.
type CalendarDay struct {
	Date      string `json:"date"` // YYYY-MM-DD in the selector's time zone
	Weekday   string `json:"weekday"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
}

// Slot is an open start time of the selected date.
type Slot struct {
	Start    string `json:"start"`
	Label    string `json:"label"` // h:MM AM/PM in the selector's time zone
	Selected bool   `json:"selected"`
}

// Snapshot is a consistent copy of the selector state.
type Snapshot struct {
	Provider          *models.Provider `json:"provider"`
	Service           *models.Service  `json:"service"`
	Date              string           `json:"date"`
	Slot              string           `json:"slot"`
	Services          []models.Service `json:"services"`
	Calendar          []CalendarDay    `json:"calendar"`
	Slots             []Slot           `json:"slots"`
	ServicesError     string           `json:"servicesError,omitempty"`
	AvailabilityError string           `json:"availabilityError,omitempty"`
	LoadingServices   bool             `json:"loadingServices"`
	LoadingSlots      bool             `json:"loadingSlots"`
}

// Calendar returns the window of consecutive dates starting today in the selector's time zone.
func (s *Selector) Calendar() []CalendarDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calendarLocked()
}

func (s *Selector) calendarLocked() []CalendarDay {
	today := s.now().In(s.loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)

	days := make([]CalendarDay, 0, s.days)
	for i := 0; i < s.days; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(utils.DateLayout)
		days = append(days, CalendarDay{
			Date:      key,
			Weekday:   d.Weekday().String()[:3],
			Available: len(s.slotsByDate[key]) > 0,
			Selected:  key == s.date,
		})
	}
	return days
}

// Snapshot returns the current selection, catalog, calendar and slots of the selected date.
func (s *Selector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Date:              s.date,
		Slot:              s.slot,
		Services:          append([]models.Service{}, s.services...),
		Calendar:          s.calendarLocked(),
		Slots:             []Slot{},
		ServicesError:     s.servicesErr,
		AvailabilityError: s.availabilityErr,
		LoadingServices:   s.servicesBusy,
		LoadingSlots:      s.availBusy,
	}
	if s.provider != nil {
		p := *s.provider
		snap.Provider = &p
	}
	if s.service != nil {
		svc := *s.service
		snap.Service = &svc
	}
	for _, start := range s.slotsByDate[s.date] {
		label := start
		if t, err := parseSlot(start); err == nil {
			label = utils.To12Hour(t.In(s.loc).Format("15:04"))
		}
		snap.Slots = append(snap.Slots, Slot{Start: start, Label: label, Selected: start == s.slot})
	}
	return snap
}
