package ports

import (
	"context"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// RectangleSetRepository persists rectangle sets. Rectangle order within a set
// is preserved. Get returns domain.ErrNotFound for unknown names.
type RectangleSetRepository interface {
	Upsert(ctx context.Context, set *domain.RectangleSet) error
	Get(ctx context.Context, name string) (*domain.RectangleSet, error)
	List(ctx context.Context) ([]domain.SetSummary, error)
	Delete(ctx context.Context, name string) error
	// Intersecting returns stored rectangles whose bounds intersect b.
	Intersecting(ctx context.Context, b domain.Bounds, limit int) ([]domain.Rectangle, error)
}
