package weather

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider supplies the day's sunrise and sunset. Implementations are used
// as fallbacks when Night Shift cannot report a schedule.
type Provider interface {
	Get(ctx context.Context) (*Data, error)
}

type Data struct {
	Provider   string    `json:"provider"`
	Sunrise    time.Time `json:"sunrise"`
	Sunset     time.Time `json:"sunset"`
	ObservedAt time.Time `json:"observed_at"`
}

func (d *Data) IsDaylight(at time.Time) bool {
	if d == nil || d.Sunrise.IsZero() || d.Sunset.IsZero() {
		return false
	}
	return !at.Before(d.Sunrise) && at.Before(d.Sunset)
}

func (d *Data) Valid() bool {
	return d != nil && !d.Sunrise.IsZero() && !d.Sunset.IsZero()
}

type Options struct {
	Provider  string
	APIKey    string
	City      string
	Country   string
	Latitude  float64
	Longitude float64
}

// NewProvider builds the HTTP-backed provider named by opts.Provider.
func NewProvider(opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "openweather":
		return NewOpenWeatherClient(opts.APIKey, opts.City, opts.Country, opts.Latitude, opts.Longitude), nil
	case "openmeteo", "open-meteo", "open_meteo", "":
		return NewOpenMeteoClient(opts.City, opts.Country, opts.Latitude, opts.Longitude), nil
	default:
		return nil, fmt.Errorf("weather provider not supported: %s", opts.Provider)
	}
}
