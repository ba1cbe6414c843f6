package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
)

// CenterID names the searched-area rectangle appended to every survey.
const CenterID = "center"

// SurveyInput is the input for the tile survey workflow.
type SurveyInput struct {
	Name  string
	Level int
	Area  domain.Rectangle
}

// MaxPendingTiles caps the tile fetches a survey keeps in flight. Temporal
// fails a workflow task that holds more than 2000 pending activities.
const MaxPendingTiles = 500

// pendingTiles is the fetch window used by TileSurveyWorkflow.
var pendingTiles = MaxPendingTiles

// TileSurveyWorkflow lists the tiles covering an area, fetches each one from
// the tile server and stores the result as a rectangle set. Fetched tiles
// carry their RTC center. Tiles that could not be fetched stay in the set,
// drawn in domain.ReferenceColor, and the searched area is appended last in
// the same color.
func TileSurveyWorkflow(ctx workflow.Context, input SurveyInput) (*domain.SurveyResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting tile survey", "set", input.Name, "level", input.Level)

	stepCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	fetchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     1.0,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeTileNotFound},
		},
	})

	// Step 1: Compute the tiles to fetch
	var tiles []domain.Rectangle
	if err := workflow.ExecuteActivity(stepCtx, ActivityComputeCoverage, input.Level, input.Area).Get(ctx, &tiles); err != nil {
		return nil, err
	}

	// Step 2: Fetch every tile, at most pendingTiles in flight
	failed := make([]bool, len(tiles))
	selector := workflow.NewSelector(ctx)
	pending := 0
	for i := range tiles {
		i := i
		if pending == pendingTiles {
			selector.Select(ctx)
			pending--
		}
		f := workflow.ExecuteActivity(fetchCtx, ActivityFetchTile, tiles[i].ID)
		selector.AddFuture(f, func(f workflow.Future) {
			var info domain.TileInfo
			if err := f.Get(ctx, &info); err != nil {
				logger.Warn("tile unavailable", "tile", tiles[i].ID, "error", err)
				failed[i] = true
				return
			}
			tiles[i].Center = info.RTCCenter
		})
		pending++
	}
	for ; pending > 0; pending-- {
		selector.Select(ctx)
	}

	result := &domain.SurveyResult{Set: input.Name, Tiles: len(tiles), Missing: []string{}}
	for i := range tiles {
		if failed[i] {
			tiles[i].Color = domain.ReferenceColor
			result.Missing = append(result.Missing, tiles[i].ID)
		}
	}

	// Step 3: Store tiles plus the searched area
	set := SurveySet(input.Name, input.Area, tiles)
	if err := workflow.ExecuteActivity(stepCtx, ActivitySaveRectangleSet, set).Get(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Tile survey stored", "set", input.Name, "tiles", result.Tiles, "missing", len(result.Missing))
	return result, nil
}

// SurveySet assembles the stored set: the tiles in coverage order followed by
// the searched area.
func SurveySet(name string, area domain.Rectangle, tiles []domain.Rectangle) domain.RectangleSet {
	rects := make([]domain.Rectangle, 0, len(tiles)+1)
	rects = append(rects, tiles...)
	rects = append(rects, domain.Rectangle{
		ID:    CenterID,
		Data:  area.Data,
		Color: domain.ReferenceColor,
	})
	return domain.RectangleSet{Name: name, Rectangles: rects}
}
