package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

type OpenWeatherClient struct {
	apiKey    string
	city      string
	country   string
	latitude  float64
	longitude float64
	baseURL   string
	client    *http.Client
}

func NewOpenWeatherClient(apiKey, city, country string, latitude, longitude float64) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:    apiKey,
		city:      city,
		country:   country,
		latitude:  latitude,
		longitude: longitude,
		baseURL:   openWeatherBaseURL,
		client:    newHTTPClient(),
	}
}

type openWeatherResponse struct {
	Dt       int64 `json:"dt"`
	Timezone int64 `json:"timezone"`
	Sys      struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

func (c *OpenWeatherClient) Get(ctx context.Context) (*Data, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is empty")
	}

	query := url.Values{}
	query.Set("appid", c.apiKey)

	if c.latitude != 0 || c.longitude != 0 {
		query.Set("lat", fmt.Sprintf("%.6f", c.latitude))
		query.Set("lon", fmt.Sprintf("%.6f", c.longitude))
	} else if c.city != "" {
		if c.country != "" {
			query.Set("q", fmt.Sprintf("%s,%s", c.city, c.country))
		} else {
			query.Set("q", c.city)
		}
	} else {
		return nil, fmt.Errorf("openweather location is empty")
	}

	var payload openWeatherResponse
	if err := fetchJSON(ctx, c.client, "openweather", c.baseURL+"/data/2.5/weather?"+query.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Sys.Sunrise == 0 || payload.Sys.Sunset == 0 {
		return nil, fmt.Errorf("openweather response has no sunrise/sunset")
	}

	zone := time.FixedZone("", int(payload.Timezone))

	return &Data{
		Provider:   "openweather",
		Sunrise:    time.Unix(payload.Sys.Sunrise, 0).In(zone),
		Sunset:     time.Unix(payload.Sys.Sunset, 0).In(zone),
		ObservedAt: time.Unix(payload.Dt, 0).In(zone),
	}, nil
}
