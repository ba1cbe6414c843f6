package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chtimi59/getmaptiles/internal/adapters/scene"
	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/core/usecases"
)

type staticSets map[string]*domain.RectangleSet

func (s staticSets) Get(ctx context.Context, name string) (*domain.RectangleSet, error) {
	set, ok := s[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return set, nil
}

// plainFactory produces surfaces that cannot be exported.
type plainFactory struct{}

type plainSurface struct{}

func (plainSurface) SetStyles([]domain.StyleRule) {}
func (plainSurface) DrawPolyline(domain.Polyline) {}
func (plainSurface) DrawMarker(domain.Marker)     {}

func (plainFactory) NewSurface(string, domain.MapViewConfig) (ports.Surface, error) {
	return plainSurface{}, nil
}

func newRenderService(sets staticSets, cache ports.CacheService) *usecases.RenderService {
	return usecases.NewRenderService(sets, cache, usecases.DefaultInitOptions(), map[string]ports.SurfaceFactory{
		usecases.FormatScene: scene.Factory{},
		"plain":              plainFactory{},
	})
}

func testSets() staticSets {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return staticSets{
		"tiles": {Name: "tiles", UpdatedAt: at, Rectangles: []domain.Rectangle{
			{ID: "21112330", Data: [4]float64{50.63, 3.05, 50.62, 3.06}},
		}},
		"area": {Name: "area", UpdatedAt: at, DefaultColor: "#F00", Rectangles: []domain.Rectangle{
			{ID: "center", Data: [4]float64{50.64, 3.04, 50.61, 3.07}},
		}},
	}
}

func TestRenderService_Scene(t *testing.T) {
	svc := newRenderService(testSets(), nil)

	out, err := svc.Render(context.Background(), usecases.FormatScene, "tiles", "area")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ContentType != "application/json" {
		t.Errorf("unexpected content type %s", out.ContentType)
	}

	var s scene.Scene
	if err := json.Unmarshal(out.Body, &s); err != nil {
		t.Fatal(err)
	}
	lines := s.Polylines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 polylines, got %d", len(lines))
	}
	if lines[0].ID != "21112330" || lines[0].StrokeColor != "#FFFF00" {
		t.Errorf("unexpected first polyline %+v", lines[0])
	}
	if lines[1].ID != "center" || lines[1].StrokeColor != "#F00" {
		t.Errorf("unexpected second polyline %+v", lines[1])
	}
}

func TestRenderService_Cache(t *testing.T) {
	cache := newMockCache()
	svc := newRenderService(testSets(), cache)

	first, err := svc.Render(context.Background(), usecases.FormatScene, "tiles")
	if err != nil {
		t.Fatal(err)
	}
	if len(cache.data) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(cache.data))
	}
	for key := range cache.data {
		if !strings.HasPrefix(key, "render:scene:tiles@") {
			t.Errorf("unexpected cache key %s", key)
		}
	}

	second, err := svc.Render(context.Background(), usecases.FormatScene, "tiles")
	if err != nil {
		t.Fatal(err)
	}
	if string(first.Body) != string(second.Body) || first.ContentType != second.ContentType {
		t.Error("cached rendering differs from the original")
	}
}

func TestRenderService_Errors(t *testing.T) {
	svc := newRenderService(testSets(), nil)

	if _, err := svc.Render(context.Background(), "svg", "tiles"); !errors.Is(err, usecases.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := svc.Render(context.Background(), usecases.FormatScene, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Render(context.Background(), "plain", "tiles"); err == nil {
		t.Error("expected error for a surface that cannot be exported")
	}
}

func TestRenderService_NoSets(t *testing.T) {
	svc := newRenderService(testSets(), nil)
	out, err := svc.RenderSets(usecases.FormatScene)
	if err != nil {
		t.Fatal(err)
	}
	var s scene.Scene
	_ = json.Unmarshal(out.Body, &s)
	if len(s.Shapes) != 0 {
		t.Errorf("expected an empty map, got %d shapes", len(s.Shapes))
	}
}

func TestRenderService_Formats(t *testing.T) {
	got := newRenderService(testSets(), nil).Formats()
	if len(got) != 2 || got[0] != "plain" || got[1] != "scene" {
		t.Errorf("unexpected formats %v", got)
	}
}
