package usecases_test

import (
	"errors"
	"testing"

	"github.com/chtimi59/getmaptiles/internal/adapters/scene"
	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/core/usecases"
)

type failingFactory struct{}

func (failingFactory) NewSurface(handle string, view domain.MapViewConfig) (ports.Surface, error) {
	return nil, errors.New("map library unavailable")
}

func initScene(t *testing.T, opts usecases.InitOptions, sets ...domain.RectangleSet) *scene.Scene {
	t.Helper()
	mi := usecases.NewMapInitializer(scene.Factory{}, opts)

	var first domain.RectangleSet
	if len(sets) > 0 {
		first, sets = sets[0], sets[1:]
	}
	surface, err := mi.Initialize("map", first, sets...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return surface.(*scene.Scene)
}

func TestMapInitializer_View(t *testing.T) {
	s := initScene(t, usecases.DefaultInitOptions())

	if s.Handle != "map" {
		t.Errorf("expected handle map, got %s", s.Handle)
	}
	if s.View.Zoom != 10 || s.View.MapTypeID != "satellite" || s.View.Tilt != 0 {
		t.Errorf("unexpected view %+v", s.View)
	}
	if s.View.Center != usecases.DefaultCenter {
		t.Errorf("unexpected center %+v", s.View.Center)
	}
	if len(s.Styles) != 1 {
		t.Fatalf("expected 1 style rule, got %d", len(s.Styles))
	}
	rule := s.Styles[0]
	if rule.FeatureType != "all" || rule.ElementType != "labels" || rule.Stylers[0].Visibility != "off" {
		t.Errorf("unexpected style rule %+v", rule)
	}
}

func TestMapInitializer_SingleRectangle(t *testing.T) {
	set := domain.RectangleSet{Rectangles: []domain.Rectangle{{ID: "r1", Data: [4]float64{1, 2, 3, 4}}}}
	s := initScene(t, usecases.DefaultInitOptions(), set)

	lines := s.Polylines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 polyline, got %d", len(lines))
	}
	pl := lines[0]
	if !pl.Geodesic {
		t.Error("expected geodesic polyline")
	}
	if pl.StrokeColor != "#FFFF00" {
		t.Errorf("expected #FFFF00, got %s", pl.StrokeColor)
	}
	want := []domain.GeoPoint{{Lat: 1, Lng: 2}, {Lat: 1, Lng: 4}, {Lat: 3, Lng: 4}, {Lat: 3, Lng: 2}, {Lat: 1, Lng: 2}}
	if len(pl.Path) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(pl.Path))
	}
	for i := range want {
		if pl.Path[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], pl.Path[i])
		}
	}
	if len(s.Markers()) != 0 {
		t.Error("marker must be disabled by default")
	}
}

func TestMapInitializer_SetColorOverride(t *testing.T) {
	set, err := domain.DecodeRectangleSet([]byte(`{"r1": [1, 2, 3, 4], "color": "#00F"}`))
	if err != nil {
		t.Fatal(err)
	}
	s := initScene(t, usecases.DefaultInitOptions(), set)

	lines := s.Polylines()
	if len(lines) != 1 || lines[0].StrokeColor != "#00F" {
		t.Fatalf("expected one #00F polyline, got %+v", lines)
	}
}

func TestMapInitializer_RectangleColorWins(t *testing.T) {
	set := domain.RectangleSet{
		DefaultColor: "#0F0",
		Rectangles: []domain.Rectangle{
			{ID: "a", Data: [4]float64{1, 2, 3, 4}, Color: "#F00"},
			{ID: "b", Data: [4]float64{1, 2, 3, 4}},
		},
	}
	lines := initScene(t, usecases.DefaultInitOptions(), set).Polylines()
	if lines[0].StrokeColor != "#F00" {
		t.Errorf("expected rectangle color #F00, got %s", lines[0].StrokeColor)
	}
	if lines[1].StrokeColor != "#0F0" {
		t.Errorf("expected set color #0F0, got %s", lines[1].StrokeColor)
	}
}

func TestMapInitializer_EmptySets(t *testing.T) {
	s := initScene(t, usecases.DefaultInitOptions(), domain.RectangleSet{}, domain.RectangleSet{Rectangles: []domain.Rectangle{}})
	if n := len(s.Shapes); n != 0 {
		t.Errorf("expected no shapes, got %d", n)
	}
}

func TestMapInitializer_SetOrder(t *testing.T) {
	a := domain.RectangleSet{Rectangles: []domain.Rectangle{{ID: "r1", Data: [4]float64{1, 1, 2, 2}}}}
	b := domain.RectangleSet{
		DefaultColor: "#00F",
		Rectangles:   []domain.Rectangle{{ID: "r2", Data: [4]float64{3, 3, 4, 4}}},
	}
	lines := initScene(t, usecases.DefaultInitOptions(), a, b).Polylines()

	if len(lines) != 2 {
		t.Fatalf("expected 2 polylines, got %d", len(lines))
	}
	if lines[0].ID != "r1" || lines[1].ID != "r2" {
		t.Errorf("expected r1 then r2, got %s then %s", lines[0].ID, lines[1].ID)
	}
	if lines[0].StrokeColor != "#FFFF00" || lines[1].StrokeColor != "#00F" {
		t.Errorf("unexpected colors %s, %s", lines[0].StrokeColor, lines[1].StrokeColor)
	}
}

func TestMapInitializer_OptionalShapes(t *testing.T) {
	opts := usecases.DefaultInitOptions()
	opts.Marker = &domain.GeoPoint{Lat: 50.6, Lng: 3.1}
	opts.Reference = &domain.Rectangle{ID: "center", Data: [4]float64{50.63, 3.05, 50.62, 3.06}}

	set := domain.RectangleSet{Rectangles: []domain.Rectangle{{ID: "r1", Data: [4]float64{1, 2, 3, 4}}}}
	s := initScene(t, opts, set)

	if len(s.Shapes) != 3 {
		t.Fatalf("expected 3 shapes, got %d", len(s.Shapes))
	}
	ref := s.Shapes[1].Polyline
	if ref == nil || ref.ID != "center" || ref.StrokeColor != domain.ReferenceColor {
		t.Errorf("unexpected reference shape %+v", s.Shapes[1])
	}
	if s.Shapes[2].Kind != scene.KindMarker || s.Shapes[2].Marker.Position != *opts.Marker {
		t.Errorf("unexpected marker shape %+v", s.Shapes[2])
	}
}

func TestMapInitializer_LabelsVisible(t *testing.T) {
	opts := usecases.DefaultInitOptions()
	opts.HideLabels = false
	s := initScene(t, opts)
	if len(s.Styles) != 0 {
		t.Errorf("expected no style rules, got %d", len(s.Styles))
	}
}

func TestMapInitializer_SurfaceUnavailable(t *testing.T) {
	mi := usecases.NewMapInitializer(failingFactory{}, usecases.DefaultInitOptions())
	if _, err := mi.Initialize("map", domain.RectangleSet{}); err == nil {
		t.Error("expected error when no surface can be acquired")
	}
}
