package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/pkg/metrics"
	"github.com/chtimi59/getmaptiles/internal/pkg/telemetry"
)

// Output formats.
const (
	FormatHTML    = "html"
	FormatGeoJSON = "geojson"
	FormatScene   = "scene"
)

// MapHandle is the element id every rendered map is bound to.
const MapHandle = "map"

const renderCacheTTL = 600

// ErrUnknownFormat is returned for formats without a surface.
var ErrUnknownFormat = errors.New("unknown render format")

// SetLoader loads one stored set.
type SetLoader interface {
	Get(ctx context.Context, name string) (*domain.RectangleSet, error)
}

// RenderService draws stored sets on a surface of the requested format.
type RenderService struct {
	sets    SetLoader
	cache   ports.CacheService
	formats map[string]*MapInitializer
}

// NewRenderService creates a new RenderService. cache may be nil.
func NewRenderService(sets SetLoader, cache ports.CacheService, opts InitOptions, surfaces map[string]ports.SurfaceFactory) *RenderService {
	formats := make(map[string]*MapInitializer, len(surfaces))
	for name, f := range surfaces {
		formats[name] = NewMapInitializer(f, opts)
	}
	return &RenderService{sets: sets, cache: cache, formats: formats}
}

// Formats lists the supported output formats.
func (s *RenderService) Formats() []string {
	out := make([]string, 0, len(s.formats))
	for f := range s.formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Render loads the named sets and draws them, in order, on one map.
func (s *RenderService) Render(ctx context.Context, format string, names ...string) (domain.Rendering, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "RenderService.Render")
	defer span.End()
	span.SetAttributes(telemetry.AttrFormat.String(format))
	span.SetAttributes(setSpanAttrs(names)...)

	if _, ok := s.formats[format]; !ok {
		return domain.Rendering{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	sets := make([]domain.RectangleSet, 0, len(names))
	for _, name := range names {
		set, err := s.sets.Get(ctx, name)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load set")
			return domain.Rendering{}, fmt.Errorf("load set %s: %w", name, err)
		}
		sets = append(sets, *set)
	}

	// Versioned by update time, so a changed set never hits a stale render.
	cacheKey := renderCacheKey(format, sets)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var out domain.Rendering
			if err := json.Unmarshal(data, &out); err == nil {
				metrics.CacheHits.WithLabelValues("render").Inc()
				span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
				return out, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("render").Inc()
	}

	out, err := s.RenderSets(format, sets...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render")
		return domain.Rendering{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, renderCacheTTL)
		}
	}
	return out, nil
}

// RenderSets draws sets that are already loaded.
func (s *RenderService) RenderSets(format string, sets ...domain.RectangleSet) (domain.Rendering, error) {
	mi, ok := s.formats[format]
	if !ok {
		return domain.Rendering{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var first domain.RectangleSet
	if len(sets) > 0 {
		first, sets = sets[0], sets[1:]
	}
	surface, err := mi.Initialize(MapHandle, first, sets...)
	if err != nil {
		return domain.Rendering{}, err
	}

	exp, ok := surface.(ports.Exporter)
	if !ok {
		return domain.Rendering{}, fmt.Errorf("%s surface cannot be exported", format)
	}
	out, err := exp.Export()
	if err != nil {
		return domain.Rendering{}, fmt.Errorf("export %s: %w", format, err)
	}
	metrics.RendersTotal.WithLabelValues(format).Inc()
	return out, nil
}

func renderCacheKey(format string, sets []domain.RectangleSet) string {
	parts := make([]string, len(sets))
	for i, set := range sets {
		parts[i] = set.Name + "@" + strconv.FormatInt(set.UpdatedAt.UnixNano(), 36)
	}
	return "render:" + format + ":" + strings.Join(parts, ",")
}
