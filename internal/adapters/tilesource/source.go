// Package tilesource fetches 3D tiles from a static tile server.
package tilesource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/tiles"
	"github.com/chtimi59/getmaptiles/internal/pkg/metrics"
	"github.com/chtimi59/getmaptiles/internal/pkg/telemetry"
)

// Source implements ports.TileSource over HTTP.
type Source struct {
	client  *fasthttp.Client
	root    string
	system  tiles.System
	timeout time.Duration
}

// New creates a source serving tiles of system under root.
func New(root string, system tiles.System, timeout time.Duration) *Source {
	return &Source{
		client: &fasthttp.Client{
			Name:                "getmaptiles",
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 30 * time.Second,
		},
		root:    strings.TrimRight(root, "/"),
		system:  system,
		timeout: timeout,
	}
}

// URL returns where the named tile is served.
func (s *Source) URL(name string) string {
	return s.root + s.system.DataPath(name)
}

// Fetch downloads and decodes a tile. Unknown tiles return domain.ErrNotFound.
func (s *Source) Fetch(ctx context.Context, name string) (*domain.TileInfo, error) {
	_, span := telemetry.Tracer().Start(ctx, "tilesource.Fetch")
	defer span.End()
	span.SetAttributes(telemetry.AttrTileName.String(name))

	timeout := s.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.URL(name))
	req.Header.SetMethod(fasthttp.MethodGet)

	start := time.Now()
	err := s.client.DoTimeout(req, resp, timeout)
	metrics.TileFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch tile %s: %w", name, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound:
		return nil, fmt.Errorf("tile %s: %w", name, domain.ErrNotFound)
	case code != fasthttp.StatusOK:
		return nil, fmt.Errorf("fetch tile %s: status %d", name, code)
	}

	tile, err := ParseB3DM(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}

	info := &domain.TileInfo{
		Name:      name,
		GLTFBytes: len(tile.GLTF),
		GLTF:      append([]byte(nil), tile.GLTF...),
	}
	if c, ok := tile.RTCCenter(); ok {
		info.RTCCenter = &c
	}
	return info, nil
}
