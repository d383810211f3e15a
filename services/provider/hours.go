package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"bookitgy/models"
	"bookitgy/services/api"
	"bookitgy/utils"

	"go.uber.org/zap"
)

const (
	defaultStart = "09:00"
	defaultEnd   = "17:00"
)

// Hours returns the week sorted Monday first, with defaults filled in and 12-hour labels.
func (c *DefaultProviderCatalog) Hours(ctx context.Context) ([]models.WorkingHours, error) {
	raw, err := c.api.DoRaw(ctx, api.Request{Method: http.MethodGet, Path: "/providers/me/hours"})
	if err != nil {
		return nil, err
	}
	rows, err := api.DecodeList[models.WorkingHours](raw, "hours", "data")
	if err != nil {
		return nil, fmt.Errorf("working hours: %w", err)
	}
	return withLocalTimes(rows), nil
}

// SaveHours submits the week. The 12-hour StartLocal/EndLocal fields win over StartTime/EndTime
// when set.
func (c *DefaultProviderCatalog) SaveHours(ctx context.Context, hours []models.WorkingHours) ([]models.WorkingHours, error) {
	payload := make([]map[string]any, 0, len(hours))
	for _, h := range hours {
		if h.Weekday < 0 || h.Weekday > 6 {
			return nil, &ValidationError{Field: "weekday", Message: fmt.Sprintf("%d is out of range", h.Weekday)}
		}
		start, end := h.StartTime, h.EndTime
		if h.StartLocal != "" {
			start = utils.To24Hour(h.StartLocal)
		}
		if h.EndLocal != "" {
			end = utils.To24Hour(h.EndLocal)
		}
		if !h.IsClosed && (start == "" || end == "") {
			return nil, &ValidationError{Field: "hours", Message: fmt.Sprintf("for weekday %d must be valid times", h.Weekday)}
		}
		payload = append(payload, map[string]any{
			"weekday":    h.Weekday,
			"is_closed":  h.IsClosed,
			"start_time": start,
			"end_time":   end,
		})
	}

	raw, err := c.api.DoRaw(ctx, api.Request{Method: http.MethodPost, Path: "/providers/me/hours", JSON: payload})
	if err != nil {
		return nil, err
	}
	rows, err := api.DecodeList[models.WorkingHours](raw, "hours", "data")
	if err != nil {
		return nil, fmt.Errorf("working hours: %w", err)
	}
	c.logger.Info("Working hours saved", zap.Int("days", len(rows)))
	return withLocalTimes(rows), nil
}

func withLocalTimes(rows []models.WorkingHours) []models.WorkingHours {
	out := append([]models.WorkingHours(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	for i := range out {
		if out[i].StartTime == "" {
			out[i].StartTime = defaultStart
		}
		if out[i].EndTime == "" {
			out[i].EndTime = defaultEnd
		}
		out[i].StartLocal = utils.To12Hour(out[i].StartTime)
		out[i].EndLocal = utils.To12Hour(out[i].EndTime)
	}
	return out
}
