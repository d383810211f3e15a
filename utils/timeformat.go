package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// To12Hour converts "HH:MM" into "h:MM AM/PM". Malformed input yields "".
func To12Hour(time24 string) string {
	h, m, ok := strings.Cut(time24, ":")
	if !ok {
		return ""
	}
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return ""
	}
	minute, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return ""
	}

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, suffix)
}

// To24Hour converts a loosely typed 12-hour time into "HH:MM".
// Accepted forms: "h:MM AM", "hh:mm pm", "930 PM", "1000am", "10". A missing suffix means AM.
// Malformed input yields "".
func To24Hour(time12 string) string {
	raw := strings.ToUpper(strings.TrimSpace(time12))
	if raw == "" {
		return ""
	}

	suffix := ""
	switch {
	case strings.HasSuffix(raw, "AM"):
		suffix = "AM"
	case strings.HasSuffix(raw, "PM"):
		suffix = "PM"
	}
	if suffix != "" {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
	}
	raw = strings.Join(strings.Fields(raw), "")

	var hour, minute int
	var err error
	if strings.Contains(raw, ":") {
		parts := strings.Split(raw, ":")
		if len(parts) != 2 {
			return ""
		}
		if hour, err = strconv.Atoi(parts[0]); err != nil {
			return ""
		}
		if minute, err = strconv.Atoi(parts[1]); err != nil {
			return ""
		}
	} else {
		if !isDigits(raw) {
			return ""
		}
		switch len(raw) {
		case 4:
			hour, _ = strconv.Atoi(raw[:2])
			minute, _ = strconv.Atoi(raw[2:])
		case 3:
			hour, _ = strconv.Atoi(raw[:1])
			minute, _ = strconv.Atoi(raw[1:])
		case 1, 2:
			hour, _ = strconv.Atoi(raw)
		default:
			return ""
		}
	}

	if suffix == "" {
		suffix = "AM"
	}
	if suffix == "PM" && hour != 12 {
		hour += 12
	}
	if suffix == "AM" && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
