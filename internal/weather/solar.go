package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// SolarCalculator computes sunrise and sunset offline from coordinates.
// It needs no network and no location services, so it is the last
// automatic fallback before manual times.
type SolarCalculator struct {
	Latitude  float64
	Longitude float64
	Now       func() time.Time
}

func NewSolarCalculator(latitude, longitude float64) *SolarCalculator {
	return &SolarCalculator{Latitude: latitude, Longitude: longitude, Now: time.Now}
}

func (s *SolarCalculator) Get(_ context.Context) (*Data, error) {
	now := s.Now()
	rise, set := sunrise.SunriseSunset(s.Latitude, s.Longitude, now.Year(), now.Month(), now.Day())

	// Polar day or night: the sun never crosses the horizon.
	if rise.IsZero() || set.IsZero() {
		return nil, fmt.Errorf("no sunrise/sunset at %.4f,%.4f on %s", s.Latitude, s.Longitude, now.Format("2006-01-02"))
	}

	loc := now.Location()
	return &Data{
		Provider:   "solar",
		Sunrise:    rise.In(loc),
		Sunset:     set.In(loc),
		ObservedAt: now,
	}, nil
}
