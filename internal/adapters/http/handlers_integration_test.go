//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handler "github.com/chtimi59/getmaptiles/internal/adapters/http"
	"github.com/chtimi59/getmaptiles/internal/adapters/postgres"
	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/pkg/config"
)

// setupTestDB connects to the test database. The schema from migrations/ must
// already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("getmaptiles-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	deps := makeDepsWith(postgres.NewRectangleSetRepo(db), nil)
	deps.DB = db
	return deps
}

func testSetName(prefix string) string {
	return prefix + "_" + time.Now().Format("20060102150405")
}

// TestSetLifecycle_Integration stores, reads, renders and deletes a set
// against a real database.
func TestSetLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(t, db))

	name := testSetName("integ")
	body := `[{"name": "b", "data": [50.6365, 3.0589, 50.6353, 3.0608], "center": [4047698.28, 216222.46, 4908015.83]},
	          {"name": "a", "data": [50.6379, 3.0583, 50.6348, 3.0651], "color": "#F00"}]`
	req := httptest.NewRequest("POST", "/v1/sets?name="+name, strings.NewReader(body))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/sets/"+name, nil)
	resp, _ = app.Test(req, -1)
	var set domain.RectangleSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if set.Len() != 2 || set.Rectangles[0].ID != "b" || set.Rectangles[1].Color != "#F00" {
		t.Errorf("order or colors not preserved: %+v", set.Rectangles)
	}
	if c := set.Rectangles[0].Center; c == nil || c[2] != 4908015.83 {
		t.Errorf("RTC center not stored: %v", c)
	}
	if set.Rectangles[1].Center != nil {
		t.Errorf("expected no center on %s", set.Rectangles[1].ID)
	}
	if set.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}

	req = httptest.NewRequest("GET", "/v1/render/scene?sets="+name, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("render: expected 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("DELETE", "/v1/sets/"+name, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
}

// TestRectangles_Integration runs the viewport query against the database.
func TestRectangles_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	name := testSetName("viewport")
	seed(t, deps, domain.RectangleSet{Name: name, DefaultColor: "#0F0", Rectangles: []domain.Rectangle{
		{ID: "in", Data: [4]float64{50.6365, 3.0589, 50.6353, 3.0608}},
		{ID: "out", Data: [4]float64{10, 10, 11, 11}},
	}})
	defer func() { _ = deps.Sets.Delete(context.Background(), name) }()

	req := httptest.NewRequest("GET", "/v1/rectangles?bbox=50.63,3.05,50.64,3.07", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rects []domain.Rectangle
	if err := json.NewDecoder(resp.Body).Decode(&rects); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	found := false
	for _, r := range rects {
		if r.ID == "out" {
			t.Error("rectangle outside the viewport returned")
		}
		if r.ID == "in" {
			found = true
			if r.Color != "#0F0" {
				t.Errorf("expected set default color, got %q", r.Color)
			}
		}
	}
	if !found {
		t.Error("expected the rectangle inside the viewport")
	}
}

// TestReady_Integration checks readiness with a live database.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(t, db))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
