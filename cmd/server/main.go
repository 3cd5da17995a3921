package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/circuitcycle/backend/internal/config"
	"github.com/vanshika/circuitcycle/backend/internal/events"
	"github.com/vanshika/circuitcycle/backend/internal/graph"
	"github.com/vanshika/circuitcycle/backend/internal/kiosk"
	"github.com/vanshika/circuitcycle/backend/internal/logging"
	"github.com/vanshika/circuitcycle/backend/internal/repository"
	"github.com/vanshika/circuitcycle/backend/internal/scanner"
	"github.com/vanshika/circuitcycle/backend/internal/seed"
	"github.com/vanshika/circuitcycle/backend/internal/server"
	"github.com/vanshika/circuitcycle/backend/internal/service"
	"github.com/vanshika/circuitcycle/backend/internal/store"
	"github.com/vanshika/circuitcycle/backend/internal/tuning"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	rules, err := tuning.Load(cfg.Data.RulesPath)
	if err != nil {
		logger.Error("failed to load rules", "error", err, "path", cfg.Data.RulesPath)
		os.Exit(1)
	}

	fixture, err := seed.Load(cfg.Data.SeedPath)
	if err != nil {
		logger.Error("failed to load seed fixture", "error", err, "path", cfg.Data.SeedPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if graphClient != nil {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}
	}()

	bus := events.NewBus()
	st := store.New(fixture.User, fixture.Bins, fixture.Leaderboard, store.Options{
		CarbonPerKg: rules.CarbonPerKg,
		Publisher:   bus,
	})

	runner := kiosk.NewRunner(kiosk.RunnerConfig{
		Rules: kiosk.Rules{
			WeightStep:   rules.Kiosk.WeightStepKg,
			WeightCap:    rules.Kiosk.WeightCapKg,
			CreditsPerKg: rules.CreditsPerKg,
		},
		Timing: kiosk.Timing{
			Tick:         rules.Kiosk.TickInterval(),
			VoiceDelay:   rules.Kiosk.VoiceDelay(),
			SuccessDwell: rules.Kiosk.SuccessDwell(),
		},
		Sink:      service.NewDepositRecorder(st),
		Publisher: bus,
		Logger:    logger.With("component", "kiosk"),
	})
	kioskDone := make(chan struct{})
	go func() {
		defer close(kioskDone)
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("kiosk runner stopped", "error", err)
		}
	}()

	picker := scanner.NewSeededPicker(cfg.Scanner.Seed)
	if cfg.Scanner.Seed == 0 {
		picker = nil
	}
	scan := scanner.New(scanner.Config{
		Catalog:      fixture.Catalog,
		AnalyzeDelay: rules.Scanner.AnalyzeDelay(),
		Picker:       picker,
		Logger:       logger.With("component", "scanner"),
	})
	scan.OpenCamera(ctx)

	var routes service.RouteRepository
	if graphClient != nil {
		routes = repository.New(graphClient)
	} else {
		logger.Info("GRAPH_URI not set, route dispatch disabled")
	}

	svc := service.NewRewardsService(service.Dependencies{
		Store:     st,
		Kiosk:     runner,
		Scanner:   scan,
		Routes:    routes,
		Threshold: rules.PriorityThreshold,
		Logger:    logger.With("component", "service"),
	})

	origins := cfg.HTTP.AllowedOrigins()
	stream := server.NewEventStream(bus, svc.Snapshot, logger.With("component", "events"), originChecker(origins))

	router := server.NewRouter(logger, server.RouterDependencies{
		Health: server.Checks{
			server.GraphHealthService{Client: graphClient},
			server.ProbeFunc(func(context.Context) error {
				select {
				case <-kioskDone:
					return kiosk.ErrRunnerStopped
				default:
					return nil
				}
			}),
		},
		API:              server.NewAPIHandlers(logger, svc),
		Events:           stream,
		AllowedOrigins:   origins,
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)
	srv.OnShutdown(stream.Close)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	<-kioskDone
}

// buildGraphClient returns a nil client when no graph URI is configured.
func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if !cfg.Graph.Enabled() {
		return nil, nil
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		_, wildcard := allowed["*"]
		return ok || wildcard
	}
}
