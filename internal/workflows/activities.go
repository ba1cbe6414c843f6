package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/core/tiles"
	"github.com/chtimi59/getmaptiles/internal/pkg/metrics"
)

// Activity names, as registered from SurveyActivities methods.
const (
	ActivityComputeCoverage  = "ComputeCoverage"
	ActivityFetchTile        = "FetchTile"
	ActivitySaveRectangleSet = "SaveRectangleSet"
)

// SetSaver stores a rectangle set and announces the change.
type SetSaver interface {
	Save(ctx context.Context, set *domain.RectangleSet) error
}

// SurveyActivities holds the activity implementations for the survey workflow.
type SurveyActivities struct {
	Mapper *tiles.Mapper
	Tiles  ports.TileSource
	Sets   SetSaver
}

// ComputeCoverage lists the tiles at level covering area.
func (a *SurveyActivities) ComputeCoverage(ctx context.Context, level int, area domain.Rectangle) ([]domain.Rectangle, error) {
	rects, err := a.Mapper.Coverage(level, area)
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}
	return rects, nil
}

// ErrTypeTileNotFound is the application error type of a tile the server
// does not have. Those are not retried.
const ErrTypeTileNotFound = "TileNotFound"

// FetchTile fetches one tile from the tile server.
func (a *SurveyActivities) FetchTile(ctx context.Context, name string) (*domain.TileInfo, error) {
	info, err := a.Tiles.Fetch(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.TilesFetched.WithLabelValues("missing").Inc()
		slog.Warn("tile missing", "tile", name)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeTileNotFound, err)
	}
	if err != nil {
		metrics.TilesFetched.WithLabelValues("error").Inc()
		slog.Warn("tile fetch failed", "tile", name, "error", err)
		return nil, err
	}
	metrics.TilesFetched.WithLabelValues("ok").Inc()
	return info, nil
}

// SaveRectangleSet persists the survey result.
func (a *SurveyActivities) SaveRectangleSet(ctx context.Context, set domain.RectangleSet) error {
	if err := a.Sets.Save(ctx, &set); err != nil {
		return fmt.Errorf("save %s: %w", set.Name, err)
	}
	slog.Info("survey set saved", "set", set.Name, "rectangles", set.Len())
	return nil
}
