package geospatial

import (
	"math"
	"testing"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

func TestHaversine_Zero(t *testing.T) {
	p := domain.GeoPoint{Lat: 50.63, Lng: 3.06}
	if d := Haversine(p, p); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_OneDegreeLatitude(t *testing.T) {
	d := Haversine(domain.GeoPoint{Lat: 50, Lng: 3}, domain.GeoPoint{Lat: 51, Lng: 3})
	// 6371 km * pi / 180
	if math.Abs(d-111194.9) > 1 {
		t.Errorf("expected ~111195 m, got %f", d)
	}
}

func TestSize_LilleArea(t *testing.T) {
	r := domain.Rectangle{Data: [4]float64{50.646993960909164, 3.0301131155001353, 50.57243526433171, 3.1522652309582746}}
	w, h := Size(r)
	if w < 8500 || w > 8700 {
		t.Errorf("unexpected width %f", w)
	}
	if h < 8200 || h > 8400 {
		t.Errorf("unexpected height %f", h)
	}
}

func TestPathLength_ClosedRectangle(t *testing.T) {
	r := domain.Rectangle{Data: [4]float64{50.64, 3.03, 50.57, 3.15}}
	w, h := Size(r)
	got := PathLength(r.Path())
	// the far edge is on a different parallel, so allow a few meters
	if math.Abs(got-2*(w+h)) > 20 {
		t.Errorf("expected perimeter ~%f, got %f", 2*(w+h), got)
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	p := domain.GeoPoint{Lat: 50.6, Lng: 3.1}
	b := BoundingBox(p, 1000)
	if !b.Contains(p) {
		t.Fatal("bounding box must contain its center")
	}
	if b.MaxLat-b.MinLat <= 0 || b.MaxLng-b.MinLng <= b.MaxLat-b.MinLat {
		t.Errorf("unexpected box %+v", b)
	}
}
