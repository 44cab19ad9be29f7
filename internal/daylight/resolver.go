// Package daylight decides whether it is currently night, which is when the
// screensaver host skips rendering.
package daylight

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nightshift-monitor/internal/nightshift"
	"nightshift-monitor/internal/weather"
)

type Source string

const (
	SourceNightShift Source = "nightshift"
	SourceWeather    Source = "weather"
	SourceSolar      Source = "solar"
	SourceManual     Source = "manual"
	SourceNone       Source = "none"
)

// Decision is one day/night evaluation. Sunrise and Sunset are projected
// onto At's calendar day.
type Decision struct {
	At                  time.Time `json:"at"`
	Source              Source    `json:"source"`
	NightShiftAvailable bool      `json:"nightshift_available"`
	Sunrise             time.Time `json:"sunrise"`
	Sunset              time.Time `json:"sunset"`
	IsNight             bool      `json:"is_night"`
	Reason              string    `json:"reason,omitempty"`
}

// HasSchedule reports whether any source produced sunrise and sunset.
func (d *Decision) HasSchedule() bool {
	return d != nil && d.Source != SourceNone
}

// NightShift is the part of nightshift.Probe the resolver depends on.
type NightShift interface {
	Information(ctx context.Context) nightshift.Result
}

type ResolverConfig struct {
	NightShift NightShift
	Weather    weather.Provider
	Solar      weather.Provider
	Manual     *Manual
}

type Resolver struct {
	nightShift NightShift
	weather    weather.Provider
	solar      weather.Provider
	manual     *Manual
}

func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		nightShift: cfg.NightShift,
		weather:    cfg.Weather,
		solar:      cfg.Solar,
		manual:     cfg.Manual,
	}
}

// Resolve evaluates now against the first source that yields both times:
// Night Shift, then the weather provider, then the solar calculator, then
// manual times.
func (r *Resolver) Resolve(ctx context.Context, now time.Time) Decision {
	d := Decision{At: now, Source: SourceNone}
	var reasons []string

	if r.nightShift != nil {
		res := r.nightShift.Information(ctx)
		if res.Available {
			d.NightShiftAvailable = true
			return decide(d, SourceNightShift, *res.Sunrise, *res.Sunset)
		}
		reasons = append(reasons, "nightshift: "+res.Message)
	}

	fallbacks := []struct {
		source   Source
		provider weather.Provider
	}{
		{SourceWeather, r.weather},
		{SourceSolar, r.solar},
	}
	for _, fb := range fallbacks {
		if fb.provider == nil {
			continue
		}
		data, err := fb.provider.Get(ctx)
		if err != nil {
			log.Printf("Daylight source %s failed: %v", fb.source, err)
			reasons = append(reasons, fmt.Sprintf("%s: %v", fb.source, err))
			continue
		}
		if !data.Valid() {
			reasons = append(reasons, fmt.Sprintf("%s: no sunrise/sunset", fb.source))
			continue
		}
		d.Reason = strings.Join(reasons, "; ")
		return decide(d, fb.source, data.Sunrise, data.Sunset)
	}

	if r.manual != nil {
		d.Reason = strings.Join(reasons, "; ")
		rise, set := r.manual.On(now)
		return decide(d, SourceManual, rise, set)
	}

	reasons = append(reasons, "no sunrise/sunset source available")
	d.Reason = strings.Join(reasons, "; ")
	return d
}

func decide(d Decision, source Source, sunrise, sunset time.Time) Decision {
	d.Source = source
	d.Sunrise = onDay(d.At, sunrise)
	d.Sunset = onDay(d.At, sunset)
	d.IsNight = IsNight(d.At, d.Sunrise, d.Sunset)
	return d
}

// onDay moves t's local time of day onto day's date.
func onDay(day, t time.Time) time.Time {
	loc := day.Location()
	lt := t.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), lt.Hour(), lt.Minute(), lt.Second(), 0, loc)
}

// IsNight reports whether at falls outside [sunrise, sunset). When sunset
// precedes sunrise on the clock (high latitudes with shifted zones), night
// is the span between them.
func IsNight(at, sunrise, sunset time.Time) bool {
	if sunset.Before(sunrise) {
		return !at.Before(sunset) && at.Before(sunrise)
	}
	day := weather.Data{Sunrise: sunrise, Sunset: sunset}
	return !day.IsDaylight(at)
}
