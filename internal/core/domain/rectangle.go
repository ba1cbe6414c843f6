package domain

import (
	"math"
	"time"
)

// DefaultStrokeColor is used for rectangles that carry no color of their own
// and belong to a set without a default.
const DefaultStrokeColor = "#FFFF00"

// ReferenceColor is the stroke color of the searched-area rectangle and of
// tiles that could not be fetched.
const ReferenceColor = "#F00"

// Rectangle is a bounding box given by two opposite corners,
// Data = [lat0, lng0, lat1, lng1]. Center is the RTC_CENTER of a surveyed
// tile, in meters, when the tile server returned one.
type Rectangle struct {
	ID     string      `json:"id"`
	Data   [4]float64  `json:"data"`
	Color  string      `json:"color,omitempty"`
	Center *[3]float64 `json:"center,omitempty"`
}

// Path returns the closed outline of the rectangle:
// (lat0,lng0) → (lat0,lng1) → (lat1,lng1) → (lat1,lng0) → (lat0,lng0).
func (r Rectangle) Path() []GeoPoint {
	lat0, lng0, lat1, lng1 := r.Data[0], r.Data[1], r.Data[2], r.Data[3]
	return []GeoPoint{
		{Lat: lat0, Lng: lng0},
		{Lat: lat0, Lng: lng1},
		{Lat: lat1, Lng: lng1},
		{Lat: lat1, Lng: lng0},
		{Lat: lat0, Lng: lng0},
	}
}

// Bounds returns the normalized bounding box, whatever corners were given.
func (r Rectangle) Bounds() Bounds {
	return Bounds{
		MinLat: math.Min(r.Data[0], r.Data[2]),
		MinLng: math.Min(r.Data[1], r.Data[3]),
		MaxLat: math.Max(r.Data[0], r.Data[2]),
		MaxLng: math.Max(r.Data[1], r.Data[3]),
	}
}

// StrokeColor returns the rectangle color, or fallback when none is set.
func (r Rectangle) StrokeColor(fallback string) string {
	if r.Color != "" {
		return r.Color
	}
	return fallback
}

// RectangleSet is an ordered collection of rectangles drawn together.
// DefaultColor applies to every rectangle without a color of its own.
type RectangleSet struct {
	Name         string      `json:"name"`
	DefaultColor string      `json:"default_color,omitempty"`
	Rectangles   []Rectangle `json:"rectangles"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Len returns the number of rectangles in the set.
func (s RectangleSet) Len() int {
	return len(s.Rectangles)
}

// SetSummary is the list view of a stored set.
type SetSummary struct {
	Name       string    `json:"name"`
	Rectangles int       `json:"rectangles"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SetEvent is published whenever a stored set changes.
type SetEvent struct {
	Name       string    `json:"name"`
	Action     string    `json:"action"` // "saved" | "deleted"
	Rectangles int       `json:"rectangles"`
	At         time.Time `json:"at"`
}

// Set event actions.
const (
	SetSaved   = "saved"
	SetDeleted = "deleted"
)
