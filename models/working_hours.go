package models

// WorkingHours is one weekday of a provider's schedule.
type WorkingHours struct {
	ID         ID     `json:"id,omitempty"`
	Weekday    int    `json:"weekday"` // 0 = Monday, 6 = Sunday
	IsClosed   bool   `json:"is_closed"`
	StartTime  string `json:"start_time,omitempty"` // "HH:MM"
	EndTime    string `json:"end_time,omitempty"`   // "HH:MM"
	StartLocal string `json:"start_local,omitempty"`
	EndLocal   string `json:"end_local,omitempty"`
}
