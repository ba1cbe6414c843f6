package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/pkg/metrics"
	"github.com/chtimi59/getmaptiles/internal/pkg/telemetry"
)

// ErrInvalidSetName is returned for names that cannot be stored or used as a
// message subject.
var ErrInvalidSetName = errors.New("set name must be 1-64 letters, digits, '_' or '-'")

// ErrInvalidBounds is returned for viewports whose minimum exceeds their maximum.
var ErrInvalidBounds = errors.New("invalid bounds: min must not exceed max")

var setNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const setCacheTTL = 600

// ValidateSetName checks a set name.
func ValidateSetName(name string) error {
	if !setNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSetName, name)
	}
	return nil
}

func setCacheKey(name string) string {
	return "sets:" + name
}

// RectangleSetService manages stored rectangle sets.
type RectangleSetService struct {
	sets   ports.RectangleSetRepository
	cache  ports.CacheService
	events ports.EventPublisher
}

// NewRectangleSetService creates a new RectangleSetService. cache and events may be nil.
func NewRectangleSetService(sets ports.RectangleSetRepository, cache ports.CacheService, events ports.EventPublisher) *RectangleSetService {
	return &RectangleSetService{sets: sets, cache: cache, events: events}
}

// Save stores a set, replacing any set with the same name.
func (s *RectangleSetService) Save(ctx context.Context, set *domain.RectangleSet) error {
	if err := ValidateSetName(set.Name); err != nil {
		return err
	}
	if set.Rectangles == nil {
		set.Rectangles = []domain.Rectangle{}
	}
	if err := s.sets.Upsert(ctx, set); err != nil {
		return fmt.Errorf("save set %s: %w", set.Name, err)
	}
	s.invalidate(ctx, set.Name)
	s.publish(ctx, set.Name, domain.SetSaved, set.Len())
	return nil
}

// Get returns a set, through the cache.
func (s *RectangleSetService) Get(ctx context.Context, name string) (*domain.RectangleSet, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "RectangleSetService.Get")
	defer span.End()
	span.SetAttributes(telemetry.AttrSetName.String(name))

	if err := ValidateSetName(name); err != nil {
		return nil, err
	}

	cacheKey := setCacheKey(name)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var set domain.RectangleSet
			if err := json.Unmarshal(data, &set); err == nil {
				metrics.CacheHits.WithLabelValues("set").Inc()
				span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
				return &set, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("set").Inc()
	}

	set, err := s.sets.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(set); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, setCacheTTL)
		}
	}
	return set, nil
}

// List returns one page of set summaries and the total count.
func (s *RectangleSetService) List(ctx context.Context, limit, offset int) ([]domain.SetSummary, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	all, err := s.sets.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if offset >= total {
		return []domain.SetSummary{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// Delete removes a set.
func (s *RectangleSetService) Delete(ctx context.Context, name string) error {
	if err := ValidateSetName(name); err != nil {
		return err
	}
	if err := s.sets.Delete(ctx, name); err != nil {
		return err
	}
	s.invalidate(ctx, name)
	s.publish(ctx, name, domain.SetDeleted, 0)
	return nil
}

// Intersecting returns stored rectangles crossing the viewport b.
func (s *RectangleSetService) Intersecting(ctx context.Context, b domain.Bounds, limit int) ([]domain.Rectangle, error) {
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return nil, ErrInvalidBounds
	}
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	return s.sets.Intersecting(ctx, b, limit)
}

// HandleSetEvent drops the cached copy of a set changed by another process.
func (s *RectangleSetService) HandleSetEvent(ctx context.Context, event *domain.SetEvent) error {
	slog.Debug("set event", "set", event.Name, "action", event.Action)
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, setCacheKey(event.Name))
}

func (s *RectangleSetService) invalidate(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, setCacheKey(name)); err != nil {
		slog.Warn("cache invalidation failed", "set", name, "error", err)
	}
}

func (s *RectangleSetService) publish(ctx context.Context, name, action string, count int) {
	if s.events == nil {
		return
	}
	event := &domain.SetEvent{Name: name, Action: action, Rectangles: count, At: time.Now().UTC()}
	if err := s.events.PublishSetEvent(ctx, event); err != nil {
		slog.Warn("publish set event failed", "set", name, "action", action, "error", err)
	}
}

// setSpanAttrs is shared by services tracing a list of sets.
func setSpanAttrs(names []string) []attribute.KeyValue {
	return []attribute.KeyValue{telemetry.AttrSetName.StringSlice(names)}
}
