package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/circuitcycle/backend/internal/config"
	"github.com/vanshika/circuitcycle/backend/internal/graph"
	"github.com/vanshika/circuitcycle/backend/internal/logging"
	"github.com/vanshika/circuitcycle/backend/internal/repository"
	"github.com/vanshika/circuitcycle/backend/internal/routing"
	"github.com/vanshika/circuitcycle/backend/internal/seed"
	"github.com/vanshika/circuitcycle/backend/internal/service"
	"github.com/vanshika/circuitcycle/backend/internal/tuning"
)

func main() {
	var (
		seedPath  = flag.String("seed", "", "Path to a seed fixture (defaults to SEED_FILE, then the embedded demo fixture)")
		rulesPath = flag.String("rules", "", "Path to a rules file (defaults to RULES_FILE)")
		threshold = flag.Int("threshold", -1, "Fill level a bin must exceed to join the route; negative keeps the rules value")
		workers   = flag.Int("workers", 4, "Number of concurrent workers for bin upserts")
		dryRun    = flag.Bool("dry-run", false, "Print the route without writing to the graph")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "dispatch")

	rules, err := tuning.Load(firstNonEmpty(*rulesPath, cfg.Data.RulesPath))
	if err != nil {
		logger.Error("failed to load rules", "error", err)
		os.Exit(1)
	}
	if *threshold >= 0 {
		rules.PriorityThreshold = *threshold
		if err := rules.Validate(); err != nil {
			logger.Error("invalid threshold", "error", err)
			os.Exit(1)
		}
	}

	fixture, err := seed.Load(firstNonEmpty(*seedPath, cfg.Data.SeedPath))
	if err != nil {
		logger.Error("failed to load seed fixture", "error", err)
		os.Exit(1)
	}

	plan := repository.RoutePlan{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
		Threshold:   rules.PriorityThreshold,
		Stops:       routing.Stops(routing.PriorityRoute(fixture.Bins, rules.PriorityThreshold)),
	}
	for _, stop := range plan.Stops {
		logger.Info("route stop",
			"sequence", stop.Sequence,
			"bin", stop.Bin.ID,
			"fill_level", stop.Bin.FillLevel,
			"critical", stop.Critical,
			"address", stop.Bin.Address,
		)
	}
	if *dryRun {
		logger.Info("dry run complete", "stops", len(plan.Stops), "bins", len(fixture.Bins))
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	repo := repository.New(graphClient)
	publisher := service.NewBulkPublisher(repo, *workers)

	start := time.Now()
	logger.Info("publishing bins", "count", len(fixture.Bins), "workers", *workers)
	if err := publisher.PublishBins(ctx, fixture.Bins); err != nil {
		logger.Error("bin publish failed", "error", err)
		os.Exit(1)
	}

	if err := repo.PublishRoute(ctx, plan); err != nil {
		logger.Error("route publish failed", "error", err)
		os.Exit(1)
	}

	logger.Info("dispatch complete", "route_id", plan.ID, "stops", len(plan.Stops), "duration", time.Since(start).String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if !cfg.Graph.Enabled() {
		return nil, fmt.Errorf("GRAPH_URI is required for dispatch")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
