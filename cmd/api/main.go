package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/chtimi59/getmaptiles/internal/adapters/geojson"
	"github.com/chtimi59/getmaptiles/internal/adapters/googlemaps"
	"github.com/chtimi59/getmaptiles/internal/adapters/http"
	natsadapter "github.com/chtimi59/getmaptiles/internal/adapters/nats"
	"github.com/chtimi59/getmaptiles/internal/adapters/postgres"
	"github.com/chtimi59/getmaptiles/internal/adapters/scene"
	"github.com/chtimi59/getmaptiles/internal/adapters/valkey"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
	"github.com/chtimi59/getmaptiles/internal/core/tiles"
	"github.com/chtimi59/getmaptiles/internal/core/usecases"
	"github.com/chtimi59/getmaptiles/internal/pkg/config"
	"github.com/chtimi59/getmaptiles/internal/pkg/logging"
	"github.com/chtimi59/getmaptiles/internal/pkg/telemetry"
	"github.com/chtimi59/getmaptiles/internal/workflows"
)

func main() {
	cfg, err := config.Load("getmaptiles-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache (optional)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS (optional): set change events out, peer changes in
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	setRepo := postgres.NewRectangleSetRepo(db)
	setSvc := usecases.NewRectangleSetService(setRepo, cacheSvc, events)

	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "getmaptiles-api"); err != nil {
		slog.Warn("set event subscription unavailable", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeSetEvents(ctx, setSvc.HandleSetEvent); err != nil {
			slog.Warn("subscribe set events", "error", err)
		}
	}

	// Map rendering
	opts := usecases.DefaultInitOptions()
	opts.Center = cfg.Map.Center()
	opts.Zoom = cfg.Map.Zoom
	opts.MapTypeID = cfg.Map.MapType
	opts.HideLabels = cfg.Map.HideLabels
	opts.DefaultColor = cfg.Map.DefaultColor
	opts.Marker = cfg.Map.MarkerPoint()
	opts.Reference = cfg.Map.ReferenceRectangle()

	renderSvc := usecases.NewRenderService(setSvc, cacheSvc, opts, map[string]ports.SurfaceFactory{
		usecases.FormatHTML:    googlemaps.Factory{APIKey: cfg.Map.GoogleAPIKey, Title: "getmaptiles"},
		usecases.FormatGeoJSON: geojson.Factory{},
		usecases.FormatScene:   scene.Factory{},
	})

	// Tile pyramid and surveys (optional Temporal)
	proj, err := tiles.ProjectionByName(cfg.Tiles.Projection)
	if err != nil {
		log.Fatalf("tiles: %v", err)
	}
	mapper := tiles.NewMapper(proj, cfg.Tiles.CornerA(), cfg.Tiles.CornerB())

	var surveys ports.SurveyStarter
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		slog.Warn("temporal unavailable, surveys disabled", "error", err)
	} else {
		defer tc.Close()
		surveys = workflows.NewSurveyClient(tc, cfg.Temporal.TaskQueue)
	}
	tileSvc := usecases.NewTileService(mapper, surveys)

	deps := &http.Dependencies{
		Sets:   setSvc,
		Render: renderSvc,
		Tiles:  tileSvc,
		NATS:   natsConn,
		DB:     db,
		Cache:  cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // survey results run to a few thousand rectangles
		AppName:      "getmaptiles API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
