package tiles

import (
	"errors"
	"testing"
)

func TestSystemLocate(t *testing.T) {
	ts := NewSystem(100, 100, 0, 0, 1)

	cases := []struct {
		level int
		p     Point
		want  string
	}{
		{1, Point{0, 0}, "1"},
		{1, Point{45, -45}, "1"},
		{1, Point{100, -100}, "2"},
		{1, Point{0, -100}, "0"},
		{2, Point{100, 0}, "33"},
		{2, Point{25, -25}, "12"},
		{2, Point{25, -50}, "03"},
		{3, Point{100, -100}, "222"},
		{3, Point{0, 0}, "111"},
		{3, Point{62.5, -50}, "213"},
	}
	for _, tc := range cases {
		got, err := ts.Locate(tc.level, tc.p)
		if err != nil {
			t.Fatalf("Locate(%d, %v): unexpected error: %v", tc.level, tc.p, err)
		}
		if got != tc.want {
			t.Errorf("Locate(%d, %v) = %q, want %q", tc.level, tc.p, got, tc.want)
		}
	}
}

func TestSystemCenter(t *testing.T) {
	ts := NewSystem(100, 100, 0, 0, 1)

	cases := map[string]Point{
		"1":   {25, -25},
		"2":   {75, -75},
		"22":  {87.5, -87.5},
		"0":   {25, -75},
		"33":  {87.5, -12.5},
		"12":  {37.5, -37.5},
		"03":  {37.5, -62.5},
		"222": {93.75, -93.75},
		"111": {6.25, -6.25},
		"213": {68.75, -56.25},
	}
	for name, want := range cases {
		got, err := ts.Center(name)
		if err != nil {
			t.Fatalf("Center(%q): unexpected error: %v", name, err)
		}
		if got != want {
			t.Errorf("Center(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSystemLocateCenterRoundTrip(t *testing.T) {
	ts := NewSystem(800, 600, -400, 300, 9)
	for _, name := range []string{"0", "31", "2130", "21112330"} {
		c, err := ts.Center(name)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ts.Locate(ts.Level+len(name)-1, c)
		if err != nil {
			t.Fatal(err)
		}
		if got != name {
			t.Errorf("round trip of %q gave %q", name, got)
		}
	}
}

func TestSystemTrace(t *testing.T) {
	ts := NewSystem(100, 100, 0, 0, 9)
	trace, err := ts.Trace(11, Point{62.5, -50})
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(trace))
	}
	want := []string{"L10_2", "L11_21", "L12_213"}
	for i, tile := range trace {
		if tile.Label != want[i] {
			t.Errorf("tile %d: expected %s, got %s", i, want[i], tile.Label)
		}
	}
	last := trace[2].Box
	if last != (Box{Left: 62.5, Top: -50, Right: 75, Bottom: -62.5}) {
		t.Errorf("unexpected box %+v", last)
	}
}

func TestSystemLevelAboveRoot(t *testing.T) {
	ts := NewSystem(100, 100, 0, 0, 9)
	if _, err := ts.Locate(8, Point{}); !errors.Is(err, ErrLevel) {
		t.Errorf("expected ErrLevel, got %v", err)
	}
}

func TestSystemBadName(t *testing.T) {
	ts := NewSystem(100, 100, 0, 0, 1)
	if _, err := ts.Box("14"); !errors.Is(err, ErrTileName) {
		t.Errorf("expected ErrTileName, got %v", err)
	}
}

func TestDataPath(t *testing.T) {
	ts := NewSystem(1, 1, 0, 0, RootLevel)
	cases := map[string]string{
		"21112330":  "/Data/211/123/L17_21112330.b3dm",
		"211123":    "/Data/211/L15_211123.b3dm",
		"2111233":   "/Data/211/123/L16_2111233.b3dm",
		"21":        "/Data/L11_21.b3dm",
		"211123301": "/Data/211/123/L18_211123301.b3dm",
	}
	for name, want := range cases {
		if got := ts.DataPath(name); got != want {
			t.Errorf("DataPath(%q) = %s, want %s", name, got, want)
		}
	}
}
