package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/chtimi59/getmaptiles/internal/adapters/geojson"
	"github.com/chtimi59/getmaptiles/internal/adapters/googlemaps"
	"github.com/chtimi59/getmaptiles/internal/adapters/memory"
	natsadapter "github.com/chtimi59/getmaptiles/internal/adapters/nats"
	"github.com/chtimi59/getmaptiles/internal/adapters/postgres"
	"github.com/chtimi59/getmaptiles/internal/adapters/scene"
	"github.com/chtimi59/getmaptiles/internal/adapters/tilesource"
	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/core/tiles"
	"github.com/chtimi59/getmaptiles/internal/core/usecases"
	"github.com/chtimi59/getmaptiles/internal/pkg/config"
	"github.com/chtimi59/getmaptiles/internal/workflows"
)

func renderCommand(cmd *cobra.Command, args []string) error {
	sets, err := readSets(args)
	if err != nil {
		return err
	}
	apiKey := flagAPIKey
	if apiKey == "" {
		apiKey = cfg.Map.GoogleAPIKey
	}

	ctx := cmd.Context()
	store := usecases.NewRectangleSetService(memory.NewRectangleSetRepo(), nil, nil)
	names := make([]string, 0, len(sets))
	for i := range sets {
		if err := store.Save(ctx, &sets[i]); err != nil {
			return fmt.Errorf("%s: %w", args[i], err)
		}
		names = append(names, sets[i].Name)
	}

	out, err := newRenderer(store, initOptions(cfg.Map), apiKey).Render(ctx, flagFormat, names...)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), flagOut, out.Body)
}

func coverageCommand(cmd *cobra.Command, args []string) error {
	area, err := parseArea(flagArea)
	if err != nil {
		return err
	}
	svc, err := tileService(cfg.Tiles)
	if err != nil {
		return err
	}
	rects, err := svc.Coverage(flagLevel, area)
	if err != nil {
		return err
	}
	slog.Info("coverage computed", "level", flagLevel, "tiles", len(rects))

	var data []byte
	if flagScript {
		data, err = domain.EncodeDataScript(rects)
	} else {
		data, err = json.MarshalIndent(rects, "", "  ")
	}
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), flagOut, data)
}

func traceCommand(cmd *cobra.Command, args []string) error {
	v, err := parseCoords(flagPoint, 2)
	if err != nil {
		return fmt.Errorf("point: %w", err)
	}
	svc, err := tileService(cfg.Tiles)
	if err != nil {
		return err
	}
	rects, err := svc.Trace(flagLevel, domain.GeoPoint{Lat: v[0], Lng: v[1]})
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rects, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), flagOut, data)
}

func surveyCommand(cmd *cobra.Command, args []string) error {
	if err := usecases.ValidateSetName(flagSetName); err != nil {
		return err
	}
	area, err := parseArea(flagArea)
	if err != nil {
		return err
	}
	mapper, err := newMapper(cfg.Tiles)
	if err != nil {
		return err
	}
	root := flagSource
	if root == "" {
		root = cfg.Tiles.SourceRoot
	}
	acts := &workflows.SurveyActivities{
		Mapper: mapper,
		Tiles:  tilesource.New(root, mapper.System, time.Duration(cfg.Tiles.Timeout)*time.Second),
	}

	ctx := cmd.Context()
	set, result, err := survey(ctx, acts, flagSetName, flagLevel, area, flagWorkers, flagOutDir)
	if err != nil {
		return err
	}
	slog.Info("survey done", "set", result.Set, "tiles", result.Tiles, "missing", len(result.Missing))

	if flagSave {
		svc, closeFn, err := setService(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := svc.Save(ctx, &set); err != nil {
			return err
		}
	}

	data, err := domain.EncodeDataScript(set.Rectangles)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), flagOut, data)
}

func importCommand(cmd *cobra.Command, args []string) error {
	if flagImportAs != "" && len(args) > 1 {
		return errors.New("--name needs exactly one file")
	}
	sets, err := readSets(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, closeFn, err := setService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	for i := range sets {
		if flagImportAs != "" {
			sets[i].Name = flagImportAs
		}
		if err := svc.Save(ctx, &sets[i]); err != nil {
			return fmt.Errorf("%s: %w", args[i], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK  %s (%d rectangles)\n", sets[i].Name, sets[i].Len())
	}
	return nil
}

// survey fetches every tile covering area with up to workers fetches in
// flight. Fetched tiles carry their RTC center and, when outDir is set, their
// glTF and texture are written there. Tiles that cannot be fetched are kept
// and drawn in domain.ReferenceColor. Cancelling ctx stops scheduling fetches.
func survey(ctx context.Context, acts *workflows.SurveyActivities, name string, level int, area domain.Rectangle, workers int, outDir string) (domain.RectangleSet, *domain.SurveyResult, error) {
	rects, err := acts.ComputeCoverage(ctx, level, area)
	if err != nil {
		return domain.RectangleSet{}, nil, err
	}
	if workers < 1 {
		workers = 1
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return domain.RectangleSet{}, nil, err
		}
	}

	var (
		mu       sync.Mutex
		writeErr error
	)
	failed := make([]bool, len(rects))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
schedule:
	for i := range rects {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break schedule
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			info, err := acts.FetchTile(ctx, rects[i].ID)
			if err != nil {
				failed[i] = true
				return
			}
			rects[i].Center = info.RTCCenter
			if outDir == "" || len(info.GLTF) == 0 {
				return
			}
			if err := writeTileFiles(outDir, rects[i].ID, info.GLTF); err != nil {
				mu.Lock()
				if writeErr == nil {
					writeErr = err
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return domain.RectangleSet{}, nil, fmt.Errorf("survey %s: %w", name, err)
	}
	if writeErr != nil {
		return domain.RectangleSet{}, nil, writeErr
	}

	result := &domain.SurveyResult{Set: name, Tiles: len(rects), Missing: []string{}}
	for i, f := range failed {
		if f {
			rects[i].Color = domain.ReferenceColor
			result.Missing = append(result.Missing, rects[i].ID)
		}
	}
	return workflows.SurveySet(name, area, rects), result, nil
}

// writeTileFiles stores a tile's glTF as <name>.gltf and its first embedded
// image next to it.
func writeTileFiles(dir, name string, gltf []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name+".gltf"), gltf, 0o644); err != nil {
		return err
	}
	img, mime, err := tilesource.GLBImage(gltf)
	if errors.Is(err, tilesource.ErrNoImage) {
		return nil
	}
	if err != nil {
		slog.Warn("tile texture unreadable", "tile", name, "error", err)
		return nil
	}
	return os.WriteFile(filepath.Join(dir, name+tilesource.ImageExt(mime)), img, 0o644)
}

// readSets decodes descriptor files. A set without a name takes the file's
// base name.
func readSets(files []string) ([]domain.RectangleSet, error) {
	sets := make([]domain.RectangleSet, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		set, err := domain.DecodeRectangleSet(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if set.Name == "" {
			set.Name = strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	slog.Info("written", "file", path, "bytes", len(data))
	return nil
}

func parseCoords(raw string, n int) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		out[i] = v
	}
	return out, nil
}

func parseArea(raw string) (domain.Rectangle, error) {
	v, err := parseCoords(raw, 4)
	if err != nil {
		return domain.Rectangle{}, fmt.Errorf("area: %w", err)
	}
	return domain.Rectangle{ID: workflows.CenterID, Data: [4]float64{v[0], v[1], v[2], v[3]}}, nil
}

func initOptions(m config.MapConfig) usecases.InitOptions {
	opts := usecases.DefaultInitOptions()
	opts.Center = m.Center()
	opts.Zoom = m.Zoom
	opts.MapTypeID = m.MapType
	opts.HideLabels = m.HideLabels
	opts.DefaultColor = m.DefaultColor
	opts.Marker = m.MarkerPoint()
	opts.Reference = m.ReferenceRectangle()
	return opts
}

func newRenderer(sets usecases.SetLoader, opts usecases.InitOptions, apiKey string) *usecases.RenderService {
	return usecases.NewRenderService(sets, nil, opts, map[string]ports.SurfaceFactory{
		usecases.FormatHTML:    googlemaps.Factory{APIKey: apiKey, Title: "getmaptiles"},
		usecases.FormatGeoJSON: geojson.Factory{},
		usecases.FormatScene:   scene.Factory{},
	})
}

func newMapper(t config.TilesConfig) (*tiles.Mapper, error) {
	proj, err := tiles.ProjectionByName(t.Projection)
	if err != nil {
		return nil, err
	}
	return tiles.NewMapper(proj, t.CornerA(), t.CornerB()), nil
}

func tileService(t config.TilesConfig) (*usecases.TileService, error) {
	mapper, err := newMapper(t)
	if err != nil {
		return nil, err
	}
	return usecases.NewTileService(mapper, nil), nil
}

// setService connects to the database, and to NATS when reachable so API
// instances drop their cached copies of imported sets.
func setService(ctx context.Context, c *config.Config) (*usecases.RectangleSetService, func(), error) {
	db, err := postgres.New(ctx, c.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	closers := []func(){db.Close}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(c.NATS.URL); err != nil {
		slog.Warn("nats unavailable, API caches will expire on their own", "error", err)
	} else {
		events = pub
		closers = append(closers, pub.Close)
	}

	closeFn := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return usecases.NewRectangleSetService(postgres.NewRectangleSetRepo(db), nil, events), closeFn, nil
}
