package tiles

import (
	"math"
	"testing"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestLambert93Origin(t *testing.T) {
	l := NewLambert93()
	p := l.Forward(domain.GeoPoint{Lat: 46.5, Lng: 3})
	if !near(p.X, 700000, 1e-3) || !near(p.Y, 6600000, 1e-3) {
		t.Errorf("origin projected to %v", p)
	}
}

func TestLambert93KnownPoint(t *testing.T) {
	p := NewLambert93().Forward(domain.GeoPoint{Lat: 48.853, Lng: 2.3499})
	if !near(p.X, 652296.973, 0.01) || !near(p.Y, 6861636.359, 0.01) {
		t.Errorf("Paris projected to %v", p)
	}
}

func TestProjectionsRoundTrip(t *testing.T) {
	for _, name := range []string{"lambert93", "mercator"} {
		proj, err := ProjectionByName(name)
		if err != nil {
			t.Fatal(err)
		}
		for _, ll := range []domain.GeoPoint{CornerA, CornerB, {Lat: 43.3, Lng: -1.5}} {
			back := proj.Inverse(proj.Forward(ll))
			if !near(back.Lat, ll.Lat, 1e-8) || !near(back.Lng, ll.Lng, 1e-8) {
				t.Errorf("%s: %v came back as %v", name, ll, back)
			}
		}
	}
	if _, err := ProjectionByName("utm"); err == nil {
		t.Error("expected error for unknown projection")
	}
}

func TestRootFromCorners(t *testing.T) {
	m := DefaultMapper()
	pa := m.Projection.Forward(CornerA)
	pb := m.Projection.Forward(CornerB)

	s := m.System
	if s.Level != RootLevel {
		t.Errorf("expected root level %d, got %d", RootLevel, s.Level)
	}
	if !near(s.Width, math.Abs(pa.X-pb.X)*4, 1e-6) || !near(s.Height, math.Abs(pa.Y-pb.Y)*4, 1e-6) {
		t.Errorf("unexpected root size %v x %v", s.Width, s.Height)
	}
	if !near(s.Left+s.Width/2, pa.X, 1e-6) || !near(s.Top-s.Height/2, pa.Y, 1e-6) {
		t.Errorf("root not centered on corner A: root %+v, A %v", s, pa)
	}
}

func TestCoverageRowMajor(t *testing.T) {
	m := DefaultMapper()
	// Inset so that no corner sits on a tile edge.
	const eps = 1e-5
	area := domain.Rectangle{Data: [4]float64{CornerA.Lat - eps, CornerA.Lng + eps, CornerB.Lat + eps, CornerB.Lng - eps}}

	level := 11
	rects, err := m.Coverage(level, area)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A to B spans two tiles each way at depth 3.
	if len(rects) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(rects))
	}

	grid := Grid{Depth: m.System.Depth(level)}
	prevCol, prevRow := -1, -1
	for _, r := range rects {
		col, row, err := grid.Index(r.ID)
		if err != nil {
			t.Fatal(err)
		}
		if row < prevRow || (row == prevRow && col <= prevCol) {
			t.Errorf("tile %s out of row-major order", r.ID)
		}
		prevCol, prevRow = col, row
	}

	first := rects[0]
	if !near(first.Data[0], CornerA.Lat, 1e-7) || !near(first.Data[1], CornerA.Lng, 1e-7) {
		t.Errorf("first tile should start at corner A, got %v", first.Data)
	}
}

func TestCoverageSingleTile(t *testing.T) {
	m := DefaultMapper()
	p := domain.GeoPoint{Lat: 50.636, Lng: 3.061}
	rects, err := m.Coverage(16, domain.Rectangle{Data: [4]float64{p.Lat, p.Lng, p.Lat, p.Lng}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rects) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(rects))
	}
	if len(rects[0].ID) != 8 {
		t.Errorf("expected 8-digit tile name, got %q", rects[0].ID)
	}
	name, err := m.Locate(16, p)
	if err != nil {
		t.Fatal(err)
	}
	if rects[0].ID != name {
		t.Errorf("expected tile %s, got %s", name, rects[0].ID)
	}
}

func TestCoverageTooLarge(t *testing.T) {
	m := DefaultMapper()
	area := domain.Rectangle{Data: [4]float64{CornerA.Lat, CornerA.Lng, CornerB.Lat, CornerB.Lng}}
	if _, err := m.Coverage(20, area); err == nil {
		t.Error("expected error for oversized coverage")
	}
}

func TestTrace(t *testing.T) {
	m := DefaultMapper()
	rects, err := m.Trace(12, CornerB)
	if err != nil {
		t.Fatal(err)
	}
	if len(rects) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(rects))
	}
	if rects[0].ID[:4] != "L10_" || rects[3].ID[:4] != "L13_" {
		t.Errorf("unexpected labels %s .. %s", rects[0].ID, rects[3].ID)
	}
}

func TestCoverageLilleSurvey(t *testing.T) {
	area := domain.Rectangle{Data: [4]float64{50.63790367370581, 3.05828278697053, 50.63476396066108, 3.0651009622863867}}
	rects, err := DefaultMapper().Coverage(16, area)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"21113220", "21113222", "21131000", "21131002", "21131020",
		"21112331", "21112333", "21130111", "21130113", "21130131",
		"21112330", "21112332", "21130110", "21130112", "21130130",
		"21112321", "21112323", "21130101", "21130103", "21130121",
	}
	if len(rects) != len(want) {
		t.Fatalf("expected %d tiles, got %d", len(want), len(rects))
	}
	for i, r := range rects {
		if r.ID != want[i] {
			t.Errorf("tile %d: expected %s, got %s", i, want[i], r.ID)
		}
	}
}
