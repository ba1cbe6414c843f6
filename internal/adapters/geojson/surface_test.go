package geojson

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/s1"
	"github.com/paulmach/orb"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

func TestDensify_KeepsVertices(t *testing.T) {
	path := domain.Rectangle{Data: [4]float64{50.64, 3.03, 50.57, 3.15}}.Path()
	line := Densify(path, s1.Angle(0.01*math.Pi/180))

	if len(line) <= len(path) {
		t.Fatalf("expected densified line, got %d points", len(line))
	}
	if line[0] != (orb.Point{3.03, 50.64}) {
		t.Errorf("unexpected first point %v", line[0])
	}
	if line[0] != line[len(line)-1] {
		t.Errorf("line not closed: %v .. %v", line[0], line[len(line)-1])
	}
}

func TestDensify_NoSplitWhenShort(t *testing.T) {
	path := []domain.GeoPoint{{Lat: 1, Lng: 2}, {Lat: 1, Lng: 2.0001}}
	line := Densify(path, s1.Angle(1*math.Pi/180))
	if len(line) != 2 {
		t.Errorf("expected 2 points, got %d", len(line))
	}
}

func TestDensify_GreatCircle(t *testing.T) {
	// A long east-west edge bulges poleward along the great circle.
	path := []domain.GeoPoint{{Lat: 50, Lng: 0}, {Lat: 50, Lng: 40}}
	line := Densify(path, s1.Angle(1*math.Pi/180))
	mid := line[len(line)/2]
	if mid.Lat() <= 50 {
		t.Errorf("expected midpoint north of 50, got %v", mid)
	}
}

func TestDensify_BoundedPerEdge(t *testing.T) {
	path := domain.Rectangle{Data: [4]float64{-60, -170, 60, 170}}.Path()
	line := Densify(path, s1.Angle(0.001*math.Pi/180))

	if limit := 4*MaxEdgeSteps + 1; len(line) > limit {
		t.Fatalf("expected at most %d points, got %d", limit, len(line))
	}
	if line[0] != line[len(line)-1] {
		t.Errorf("line not closed: %v .. %v", line[0], line[len(line)-1])
	}
	if line[MaxEdgeSteps] != (orb.Point{170, -60}) {
		t.Errorf("expected the second vertex after %d steps, got %v", MaxEdgeSteps, line[MaxEdgeSteps])
	}
}

func TestSurface_Export(t *testing.T) {
	s := NewSurface("map", domain.MapViewConfig{Zoom: 10, MapTypeID: domain.MapTypeSatellite}, DefaultMaxSegment)
	s.SetStyles(domain.HideAllLabels())
	s.DrawPolyline(domain.Polyline{
		ID:          "r1",
		Path:        domain.Rectangle{Data: [4]float64{1, 2, 3, 4}}.Path(),
		Geodesic:    true,
		StrokeColor: "#FFFF00",
	})
	s.DrawMarker(domain.Marker{Position: domain.GeoPoint{Lat: 1.5, Lng: 2.5}})

	out, err := s.Export()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ContentType != "application/geo+json" {
		t.Errorf("unexpected content type %s", out.ContentType)
	}

	var doc struct {
		Type     string `json:"type"`
		Handle   string `json:"handle"`
		Features []struct {
			ID         string                 `json:"id"`
			Geometry   map[string]interface{} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
		Styles []domain.StyleRule `json:"styles"`
	}
	if err := json.Unmarshal(out.Body, &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc.Type != "FeatureCollection" || doc.Handle != "map" {
		t.Errorf("unexpected document %s", out.Body)
	}
	if len(doc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(doc.Features))
	}
	line := doc.Features[0]
	if line.ID != "r1" || line.Geometry["type"] != "LineString" || line.Properties["stroke"] != "#FFFF00" {
		t.Errorf("unexpected line feature %+v", line)
	}
	if doc.Features[1].Geometry["type"] != "Point" {
		t.Errorf("expected point feature, got %v", doc.Features[1].Geometry["type"])
	}
	if len(doc.Styles) != 1 {
		t.Errorf("expected styles foreign member, got %d rules", len(doc.Styles))
	}
}
