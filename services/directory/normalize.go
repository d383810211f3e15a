package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bookitgy/models"
	"bookitgy/services/api"
)

// wireProvider lists every field name the API has used for a provider record.
type wireProvider struct {
	ID           models.ID `json:"id"`
	ProviderID   models.ID `json:"provider_id"`
	UserID       models.ID `json:"user_id"`
	Name         string    `json:"name"`
	ProviderName string    `json:"provider_name"`
	BusinessName string    `json:"business_name"`
	FullName     string    `json:"full_name"`
	Username     string    `json:"username"`
	Professions  []string  `json:"professions"`
	Lat          *flexNum  `json:"lat"`
	Latitude     *flexNum  `json:"latitude"`
	Long         *flexNum  `json:"long"`
	Lng          *flexNum  `json:"lng"`
	Longitude    *flexNum  `json:"longitude"`
	AvatarURL    string    `json:"avatar_url"`
	Avatar       string    `json:"avatar"`
	Location     string    `json:"location"`
	IsSuspended  bool      `json:"is_suspended"`
	IsLocked     bool      `json:"is_locked"`
	User         *struct {
		Lat  *flexNum `json:"lat"`
		Long *flexNum `json:"long"`
	} `json:"user"`
}

// flexNum accepts a JSON number or a numeric string. Anything else decodes as absent.
type flexNum struct {
	v     float64
	valid bool
}

func (n *flexNum) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		*n = flexNum{v: f, valid: err == nil}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = flexNum{}
		return nil
	}
	*n = flexNum{v: f, valid: true}
	return nil
}

func firstNum(candidates ...*flexNum) *float64 {
	for _, c := range candidates {
		if c != nil && c.valid {
			v := c.v
			return &v
		}
	}
	return nil
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}

func (w wireProvider) normalize() models.Provider {
	id := w.ProviderID
	if id == "" {
		id = w.ID
	}
	if id == "" {
		id = w.UserID
	}

	p := models.Provider{
		ID:          id,
		Name:        firstString(w.Name, w.ProviderName, w.BusinessName, w.FullName, w.Username),
		Username:    w.Username,
		Professions: w.Professions,
		AvatarURL:   firstString(w.AvatarURL, w.Avatar),
		Location:    w.Location,
		Suspended:   w.IsSuspended || w.IsLocked,
	}
	if p.Professions == nil {
		p.Professions = []string{}
	}

	var userLat, userLong *flexNum
	if w.User != nil {
		userLat, userLong = w.User.Lat, w.User.Long
	}
	p.Latitude = firstNum(w.Lat, w.Latitude, userLat)
	p.Longitude = firstNum(w.Long, w.Lng, w.Longitude, userLong)
	return p
}

func parseProviders(raw json.RawMessage) ([]models.Provider, error) {
	rows, err := api.DecodeList[wireProvider](raw, "providers", "data")
	if err != nil {
		return nil, err
	}
	providers := make([]models.Provider, 0, len(rows))
	for _, row := range rows {
		p := row.normalize()
		if p.ID == "" {
			continue
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func parseServices(raw json.RawMessage, providerID models.ID) ([]models.Service, error) {
	services, err := api.DecodeList[models.Service](raw, "services", "data")
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].ProviderID == "" {
			services[i].ProviderID = providerID
		}
	}
	return services, nil
}

// parseAvailability accepts a list of {date, slots}, the same list under "days" or
// "availability", or an object keyed by date.
func parseAvailability(raw json.RawMessage) ([]models.AvailabilityDay, error) {
	days, err := api.DecodeList[models.AvailabilityDay](raw, "days", "availability")
	if err == nil {
		return days, nil
	}

	var byDate map[string][]string
	if jerr := json.Unmarshal(raw, &byDate); jerr != nil {
		return nil, fmt.Errorf("%w: availability", api.ErrUnexpectedShape)
	}
	days = make([]models.AvailabilityDay, 0, len(byDate))
	for date, slots := range byDate {
		days = append(days, models.AvailabilityDay{Date: date, Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}
