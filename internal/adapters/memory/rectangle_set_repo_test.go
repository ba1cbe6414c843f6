package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

func lille() *domain.RectangleSet {
	return &domain.RectangleSet{
		Name:         "lille",
		DefaultColor: "#0F0",
		Rectangles: []domain.Rectangle{
			{ID: "a", Data: [4]float64{50.64, 3.03, 50.63, 3.05}},
			{ID: "b", Data: [4]float64{50.60, 3.10, 50.57, 3.15}, Color: "#F00"},
			{ID: "dot", Data: [4]float64{50.62, 3.07, 50.62, 3.07}},
		},
	}
}

func TestRepo_UpsertGet(t *testing.T) {
	repo := NewRectangleSetRepo()
	ctx := context.Background()

	set := lille()
	if err := repo.Upsert(ctx, set); err != nil {
		t.Fatal(err)
	}
	if set.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped")
	}

	got, err := repo.Get(ctx, "lille")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 || got.Rectangles[0].ID != "a" || got.Rectangles[2].ID != "dot" {
		t.Errorf("unexpected set %+v", got)
	}

	got.Rectangles[0].ID = "mutated"
	again, _ := repo.Get(ctx, "lille")
	if again.Rectangles[0].ID != "a" {
		t.Error("Get must return a copy")
	}
}

func TestRepo_GetMissing(t *testing.T) {
	repo := NewRectangleSetRepo()
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_Intersecting(t *testing.T) {
	repo := NewRectangleSetRepo()
	ctx := context.Background()
	_ = repo.Upsert(ctx, lille())

	rects, err := repo.Intersecting(ctx, domain.Bounds{MinLat: 50.61, MinLng: 3.0, MaxLat: 50.65, MaxLng: 3.08}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rects) != 2 {
		t.Fatalf("expected 2 rectangles, got %d", len(rects))
	}
	if rects[0].ID != "a" || rects[1].ID != "dot" {
		t.Errorf("unexpected order %s, %s", rects[0].ID, rects[1].ID)
	}
	if rects[0].Color != "#0F0" {
		t.Errorf("expected set default color, got %q", rects[0].Color)
	}

	limited, _ := repo.Intersecting(ctx, domain.Bounds{MinLat: 50, MinLng: 3, MaxLat: 51, MaxLng: 4}, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestRepo_ReplaceAndDelete(t *testing.T) {
	repo := NewRectangleSetRepo()
	ctx := context.Background()
	_ = repo.Upsert(ctx, lille())

	_ = repo.Upsert(ctx, &domain.RectangleSet{
		Name:       "lille",
		Rectangles: []domain.Rectangle{{ID: "only", Data: [4]float64{10, 10, 11, 11}}},
	})
	old, _ := repo.Intersecting(ctx, domain.Bounds{MinLat: 50, MinLng: 3, MaxLat: 51, MaxLng: 4}, 0)
	if len(old) != 0 {
		t.Errorf("replaced rectangles still indexed: %+v", old)
	}

	list, _ := repo.List(ctx)
	if len(list) != 1 || list[0].Rectangles != 1 {
		t.Errorf("unexpected list %+v", list)
	}

	if err := repo.Delete(ctx, "lille"); err != nil {
		t.Fatal(err)
	}
	left, _ := repo.Intersecting(ctx, domain.Bounds{MinLat: 9, MinLng: 9, MaxLat: 12, MaxLng: 12}, 0)
	if len(left) != 0 {
		t.Errorf("deleted rectangles still indexed: %+v", left)
	}
}
