package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/core/tiles"
	"github.com/chtimi59/getmaptiles/internal/pkg/telemetry"
)

// MaxTileLevel is the deepest level the tile server publishes (L21 files).
const MaxTileLevel = 20

// DefaultTileLevel is the survey level of the original pyramid (L17 files).
const DefaultTileLevel = 16

var (
	ErrSurveyUnavailable = errors.New("tile surveys are not available")
	ErrInvalidLevel      = errors.New("invalid tile level")
)

// TileService answers tile coverage questions and starts surveys.
type TileService struct {
	mapper  *tiles.Mapper
	surveys ports.SurveyStarter
}

// NewTileService creates a new TileService. surveys may be nil.
func NewTileService(mapper *tiles.Mapper, surveys ports.SurveyStarter) *TileService {
	return &TileService{mapper: mapper, surveys: surveys}
}

func (s *TileService) checkLevel(level int) error {
	if level < s.mapper.System.Level || level > MaxTileLevel {
		return fmt.Errorf("%w: must be %d-%d, got %d", ErrInvalidLevel, s.mapper.System.Level, MaxTileLevel, level)
	}
	return nil
}

// TileDetail describes one tile of the pyramid.
type TileDetail struct {
	Name      string           `json:"name"`
	Label     string           `json:"label"`
	DataPath  string           `json:"data_path"`
	Rectangle domain.Rectangle `json:"rectangle"`
}

// Tile looks up a tile by quadtree name.
func (s *TileService) Tile(name string) (TileDetail, error) {
	if name == "" || len(name) > MaxTileLevel-s.mapper.System.Level+1 {
		return TileDetail{}, fmt.Errorf("%w: %q", tiles.ErrTileName, name)
	}
	r, err := s.mapper.Rectangle(name)
	if err != nil {
		return TileDetail{}, err
	}
	return TileDetail{
		Name:      name,
		Label:     s.mapper.System.Label(name),
		DataPath:  s.mapper.System.DataPath(name),
		Rectangle: r,
	}, nil
}

// Coverage returns the tiles at level covering area, row by row.
func (s *TileService) Coverage(level int, area domain.Rectangle) ([]domain.Rectangle, error) {
	if err := s.checkLevel(level); err != nil {
		return nil, err
	}
	return s.mapper.Coverage(level, area)
}

// Trace returns the tiles containing p at every level down to level.
func (s *TileService) Trace(level int, p domain.GeoPoint) ([]domain.Rectangle, error) {
	if err := s.checkLevel(level); err != nil {
		return nil, err
	}
	return s.mapper.Trace(level, p)
}

// StartSurvey launches a survey storing its result as the named set.
func (s *TileService) StartSurvey(ctx context.Context, name string, level int, area domain.Rectangle) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "TileService.StartSurvey")
	defer span.End()
	span.SetAttributes(telemetry.AttrSetName.String(name), telemetry.AttrTileLevel.Int(level))

	if s.surveys == nil {
		return "", ErrSurveyUnavailable
	}
	if err := ValidateSetName(name); err != nil {
		return "", err
	}
	if err := s.checkLevel(level); err != nil {
		return "", err
	}
	// Fail fast on oversized areas rather than inside the workflow.
	if _, err := s.mapper.Coverage(level, area); err != nil {
		return "", err
	}
	return s.surveys.StartSurvey(ctx, name, level, area)
}

// SurveysEnabled reports whether StartSurvey can reach a workflow engine.
func (s *TileService) SurveysEnabled() bool {
	return s.surveys != nil
}
