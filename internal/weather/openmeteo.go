package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	openMeteoForecastURL  = "https://api.open-meteo.com"
	openMeteoGeocodingURL = "https://geocoding-api.open-meteo.com"
)

type OpenMeteoClient struct {
	city         string
	country      string
	latitude     float64
	longitude    float64
	forecastURL  string
	geocodingURL string
	client       *http.Client

	mu sync.Mutex
}

func NewOpenMeteoClient(city, country string, latitude, longitude float64) *OpenMeteoClient {
	return &OpenMeteoClient{
		city:         city,
		country:      country,
		latitude:     latitude,
		longitude:    longitude,
		forecastURL:  openMeteoForecastURL,
		geocodingURL: openMeteoGeocodingURL,
		client:       newHTTPClient(),
	}
}

type openMeteoResponse struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Time string `json:"time"`
	} `json:"current"`
	Daily struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

type openMeteoGeoResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

func (c *OpenMeteoClient) Get(ctx context.Context) (*Data, error) {
	lat, lon, err := c.resolveLocation(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", lat))
	query.Set("longitude", fmt.Sprintf("%.6f", lon))
	query.Set("current", "is_day")
	query.Set("daily", "sunrise,sunset")
	query.Set("timezone", "auto")
	query.Set("forecast_days", "1")

	var payload openMeteoResponse
	if err := fetchJSON(ctx, c.client, "open-meteo", c.forecastURL+"/v1/forecast?"+query.Encode(), &payload); err != nil {
		return nil, err
	}

	if len(payload.Daily.Sunrise) == 0 || len(payload.Daily.Sunset) == 0 {
		return nil, fmt.Errorf("open-meteo daily sunrise/sunset missing")
	}

	loc := openMeteoLocation(payload.Timezone)
	sunrise := parseOpenMeteoTime(payload.Daily.Sunrise[0], loc)
	sunset := parseOpenMeteoTime(payload.Daily.Sunset[0], loc)
	if sunrise.IsZero() || sunset.IsZero() {
		return nil, fmt.Errorf("open-meteo sunrise/sunset unparseable: %q / %q",
			payload.Daily.Sunrise[0], payload.Daily.Sunset[0])
	}

	observed := parseOpenMeteoTime(payload.Current.Time, loc)
	if observed.IsZero() {
		observed = time.Now().In(loc)
	}

	return &Data{
		Provider:   "openmeteo",
		Sunrise:    sunrise,
		Sunset:     sunset,
		ObservedAt: observed,
	}, nil
}

// resolveLocation geocodes the city once and remembers the coordinates.
func (c *OpenMeteoClient) resolveLocation(ctx context.Context) (float64, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latitude != 0 || c.longitude != 0 {
		return c.latitude, c.longitude, nil
	}

	if strings.TrimSpace(c.city) == "" {
		return 0, 0, fmt.Errorf("open-meteo location is empty")
	}

	query := url.Values{}
	query.Set("name", c.city)
	query.Set("count", "1")
	query.Set("format", "json")
	if strings.TrimSpace(c.country) != "" {
		query.Set("country", c.country)
	}

	var payload openMeteoGeoResponse
	if err := fetchJSON(ctx, c.client, "open-meteo", c.geocodingURL+"/v1/search?"+query.Encode(), &payload); err != nil {
		return 0, 0, fmt.Errorf("geocoding: %w", err)
	}

	if len(payload.Results) == 0 {
		return 0, 0, fmt.Errorf("open-meteo geocoding found no results for %q", c.city)
	}

	c.latitude = payload.Results[0].Latitude
	c.longitude = payload.Results[0].Longitude

	return c.latitude, c.longitude, nil
}

func openMeteoLocation(timezone string) *time.Location {
	if strings.TrimSpace(timezone) != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

func parseOpenMeteoTime(value string, loc *time.Location) time.Time {
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, loc); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(time.RFC3339, value, loc); err == nil {
		return t
	}
	return time.Time{}
}
