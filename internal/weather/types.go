package weather

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Location is a geocoded city.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Geocoder interface {
	Geocode(ctx context.Context, city string) (Location, error)
}

// Point is one entry of the short-range forecast.
type Point struct {
	Time        time.Time
	Temperature float64
	Rain        float64
	Code        int
}

func (p Point) Description() string { return Describe(p.Code) }
func (p Point) Icon() string        { return Icon(p.Code) }

// Snapshot is the current conditions and the next few hours for one place.
type Snapshot struct {
	Location    Location
	Timezone    string
	TZAbbrev    string
	Units       string // metric | imperial
	ObservedAt  time.Time
	Temperature float64
	FeelsLike   float64
	Low         float64
	High        float64
	Code        int
	WindSpeed   float64
	Humidity    float64
	Rain        float64
	Forecast    []Point
}

func (s Snapshot) Description() string { return Describe(s.Code) }
func (s Snapshot) Icon() string        { return Icon(s.Code) }

// TempUnit is the temperature suffix for the snapshot's unit system.
func (s Snapshot) TempUnit() string {
	if s.Units == "imperial" {
		return "°F"
	}
	return "°C"
}

func (s Snapshot) WindUnit() string {
	if s.Units == "imperial" {
		return "mph"
	}
	return "m/s"
}

// Coordinates formats the position with hemisphere letters, e.g.
// "33.87°S 151.21°E".
func (s Snapshot) Coordinates() string {
	ns, ew := "N", "E"
	if s.Location.Latitude < 0 {
		ns = "S"
	}
	if s.Location.Longitude < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", math.Abs(s.Location.Latitude), ns, math.Abs(s.Location.Longitude), ew)
}
