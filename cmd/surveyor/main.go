package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/chtimi59/getmaptiles/internal/adapters/nats"
	"github.com/chtimi59/getmaptiles/internal/adapters/postgres"
	"github.com/chtimi59/getmaptiles/internal/adapters/tilesource"
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
	cfg, err := config.Load("getmaptiles-surveyor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx := context.Background()

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

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cache = vc
		defer vc.Close()
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, survey results will not be announced", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	proj, err := tiles.ProjectionByName(cfg.Tiles.Projection)
	if err != nil {
		log.Fatalf("tiles: %v", err)
	}
	mapper := tiles.NewMapper(proj, cfg.Tiles.CornerA(), cfg.Tiles.CornerB())

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 16,
	})

	w.RegisterWorkflow(workflows.TileSurveyWorkflow)
	w.RegisterActivity(&workflows.SurveyActivities{
		Mapper: mapper,
		Tiles:  tilesource.New(cfg.Tiles.SourceRoot, mapper.System, time.Duration(cfg.Tiles.Timeout)*time.Second),
		Sets:   usecases.NewRectangleSetService(postgres.NewRectangleSetRepo(db), cache, events),
	})

	slog.Info("surveyor worker started", "task_queue", cfg.Temporal.TaskQueue, "source", cfg.Tiles.SourceRoot)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
