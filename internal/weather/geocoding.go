package weather

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"dailybriefing/internal/fetch"
)

const source = "weather"

// OpenMeteoGeocoder looks cities up with the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	BaseURL string
	HTTP    *fetch.Client
}

func NewOpenMeteoGeocoder(baseURL string) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    fetch.NewClient(source, 12*time.Second),
	}
}

type omSearch struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, city string) (Location, error) {
	q := strings.TrimSpace(city)
	if q == "" {
		return Location{}, fetch.Errorf(source, fetch.KindNotFound, "empty city name")
	}

	params := url.Values{}
	params.Set("name", q)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var out omSearch
	if err := g.HTTP.GetJSON(ctx, g.BaseURL+"/v1/search?"+params.Encode(), nil, &out); err != nil {
		return Location{}, err
	}
	if len(out.Results) == 0 {
		return Location{}, fetch.Errorf(source, fetch.KindNotFound, "city %q not found", q)
	}

	r := out.Results[0]
	return Location{
		Name:      strings.TrimSpace(r.Name),
		Country:   strings.TrimSpace(r.Country),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}, nil
}

// HybridGeocoder tries the built-in table before the API.
type HybridGeocoder struct {
	Table Geocoder // optional
	API   Geocoder // optional
}

func NewHybridGeocoder(table Geocoder, api Geocoder) *HybridGeocoder {
	return &HybridGeocoder{Table: table, API: api}
}

func (h *HybridGeocoder) Geocode(ctx context.Context, city string) (Location, error) {
	if normalizeKey(city) == "" {
		return Location{}, fetch.Errorf(source, fetch.KindNotFound, "empty city name")
	}

	if h.Table != nil {
		if v, err := h.Table.Geocode(ctx, city); err == nil {
			return v, nil
		}
	}

	if h.API != nil {
		return h.API.Geocode(ctx, city)
	}

	return Location{}, fetch.Wrap(source, fetch.KindNotFound, errors.New("no geocoder available"))
}
