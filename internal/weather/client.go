// Package weather fetches current conditions and a short forecast from
// Open-Meteo.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dailybriefing/internal/fetch"
)

const (
	forecastPoints = 4
	forecastStep   = 3 // hours between points

	omTimeLayout = "2006-01-02T15:04"
)

type Client struct {
	BaseURL  string
	Geocoder Geocoder
	HTTP     *fetch.Client
}

// NewClient builds a client whose geocoder consults the built-in city table
// and then the geocoding API at geocodingURL.
func NewClient(forecastURL, geocodingURL string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(forecastURL, "/"),
		Geocoder: NewHybridGeocoder(NewCityTable(), NewOpenMeteoGeocoder(geocodingURL)),
		HTTP:     fetch.NewClient(source, 15*time.Second),
	}
}

type omForecast struct {
	Timezone       string `json:"timezone"`
	TZAbbreviation string `json:"timezone_abbreviation"`
	Current        *struct {
		Time        string   `json:"time"`
		Temperature *float64 `json:"temperature_2m"`
		FeelsLike   float64  `json:"apparent_temperature"`
		Rain        float64  `json:"rain"`
		Code        int      `json:"weather_code"`
		WindSpeed   float64  `json:"wind_speed_10m"`
		Humidity    float64  `json:"relative_humidity_2m"`
	} `json:"current"`
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		Rain        []float64 `json:"rain"`
		Code        []int     `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Min []float64 `json:"temperature_2m_min"`
		Max []float64 `json:"temperature_2m_max"`
	} `json:"daily"`
}

// Fetch geocodes city and returns its weather in units (metric or imperial).
func (c *Client) Fetch(ctx context.Context, city, units string) (Snapshot, error) {
	loc, err := c.Geocoder.Geocode(ctx, city)
	if err != nil {
		return Snapshot{}, err
	}

	var out omForecast
	if err := c.HTTP.GetJSON(ctx, c.forecastURL(loc, units), nil, &out); err != nil {
		return Snapshot{}, err
	}
	return buildSnapshot(loc, units, out)
}

func (c *Client) forecastURL(loc Location, units string) string {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	params.Set("current", "temperature_2m,apparent_temperature,rain,weather_code,wind_speed_10m,relative_humidity_2m")
	params.Set("hourly", "temperature_2m,rain,weather_code")
	params.Set("daily", "temperature_2m_min,temperature_2m_max")
	params.Set("timezone", "auto")
	params.Set("forecast_days", "2")
	if units == "imperial" {
		params.Set("temperature_unit", "fahrenheit")
		params.Set("wind_speed_unit", "mph")
	} else {
		params.Set("temperature_unit", "celsius")
		params.Set("wind_speed_unit", "ms")
	}
	return c.BaseURL + "/v1/forecast?" + params.Encode()
}

func buildSnapshot(loc Location, units string, f omForecast) (Snapshot, error) {
	if f.Current == nil || f.Current.Temperature == nil {
		return Snapshot{}, fetch.Errorf(source, fetch.KindMalformed, "response has no current conditions")
	}
	if len(f.Daily.Min) == 0 || len(f.Daily.Max) == 0 {
		return Snapshot{}, fetch.Errorf(source, fetch.KindMalformed, "response has no daily range")
	}
	observed, err := time.Parse(omTimeLayout, f.Current.Time)
	if err != nil {
		return Snapshot{}, fetch.Wrap(source, fetch.KindMalformed, fmt.Errorf("current time: %w", err))
	}

	points, err := nextHours(observed, f)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Location:    loc,
		Timezone:    f.Timezone,
		TZAbbrev:    f.TZAbbreviation,
		Units:       units,
		ObservedAt:  observed,
		Temperature: *f.Current.Temperature,
		FeelsLike:   f.Current.FeelsLike,
		Low:         f.Daily.Min[0],
		High:        f.Daily.Max[0],
		Code:        f.Current.Code,
		WindSpeed:   f.Current.WindSpeed,
		Humidity:    f.Current.Humidity,
		Rain:        f.Current.Rain,
		Forecast:    points,
	}, nil
}

// nextHours picks up to four hourly entries, three hours apart, starting at
// the hour of the current observation. Times are in the location's zone and
// carry no offset, so they are compared as wall-clock values.
func nextHours(observed time.Time, f omForecast) ([]Point, error) {
	h := f.Hourly
	n := len(h.Time)
	if len(h.Temperature) < n || len(h.Rain) < n || len(h.Code) < n {
		return nil, fetch.Errorf(source, fetch.KindMalformed, "hourly series have mismatched lengths")
	}

	start := observed.Truncate(time.Hour)
	first := -1
	for i, ts := range h.Time {
		t, err := time.Parse(omTimeLayout, ts)
		if err != nil {
			return nil, fetch.Wrap(source, fetch.KindMalformed, fmt.Errorf("hourly time: %w", err))
		}
		if !t.Before(start) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil
	}

	points := make([]Point, 0, forecastPoints)
	for i := first; i < n && len(points) < forecastPoints; i += forecastStep {
		t, _ := time.Parse(omTimeLayout, h.Time[i])
		points = append(points, Point{
			Time:        t,
			Temperature: h.Temperature[i],
			Rain:        h.Rain[i],
			Code:        h.Code[i],
		})
	}
	return points, nil
}
