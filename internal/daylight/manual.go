package daylight

import (
	"fmt"
	"strings"
	"time"
)

// Manual is a fixed sunrise/sunset schedule expressed as offsets from
// local midnight.
type Manual struct {
	Sunrise time.Duration
	Sunset  time.Duration
}

// ParseManual reads "HH:MM" sunrise and sunset times. Both empty means no
// manual schedule and returns nil.
func ParseManual(sunrise, sunset string) (*Manual, error) {
	sunrise, sunset = strings.TrimSpace(sunrise), strings.TrimSpace(sunset)
	if sunrise == "" && sunset == "" {
		return nil, nil
	}
	if sunrise == "" || sunset == "" {
		return nil, fmt.Errorf("manual schedule needs both sunrise and sunset")
	}

	rise, err := parseClock(sunrise)
	if err != nil {
		return nil, fmt.Errorf("manual sunrise: %w", err)
	}
	set, err := parseClock(sunset)
	if err != nil {
		return nil, fmt.Errorf("manual sunset: %w", err)
	}
	return &Manual{Sunrise: rise, Sunset: set}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// On returns the schedule placed on day's date in day's location.
func (m *Manual) On(day time.Time) (sunrise, sunset time.Time) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(m.Sunrise), midnight.Add(m.Sunset)
}
