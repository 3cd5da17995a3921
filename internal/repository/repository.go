package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/graph"
	"github.com/vanshika/circuitcycle/backend/internal/routing"
)

// RoutePlan is a priority route handed to dispatch.
type RoutePlan struct {
	ID          string
	PublishedAt time.Time
	Threshold   int
	Stops       []routing.Stop
}

// Repository projects the bin network and published routes into the graph.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// UpsertBin merges a single bin node with its latest properties.
func (r *Repository) UpsertBin(ctx context.Context, bin domain.Bin) error {
	if bin.ID == "" {
		return errors.New("bin id is required")
	}
	_, err := r.client.ExecuteWrite(ctx, upsertBinCypher, map[string]any{
		"binId": bin.ID,
		"props": binProperties(bin),
	})
	if err != nil {
		return fmt.Errorf("upsert bin %s: %w", bin.ID, err)
	}
	return nil
}

// UpsertBins merges all bins in one statement.
func (r *Repository) UpsertBins(ctx context.Context, bins []domain.Bin) error {
	if len(bins) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(bins))
	for _, b := range bins {
		if b.ID == "" {
			return errors.New("bin id is required")
		}
		rows = append(rows, map[string]any{
			"id":    b.ID,
			"props": binProperties(b),
		})
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertBinsCypher, map[string]any{"bins": rows}); err != nil {
		return fmt.Errorf("upsert %d bins: %w", len(bins), err)
	}
	return nil
}

// PublishRoute stores the plan as the latest route. Earlier routes are kept
// but lose their latest flag in the same transaction, so a failed publish
// leaves the previous latest route in place. Stop bins must already exist in
// the graph.
func (r *Repository) PublishRoute(ctx context.Context, plan RoutePlan) error {
	if plan.ID == "" {
		return errors.New("route id is required")
	}

	stops := make([]map[string]any, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		stops = append(stops, map[string]any{
			"binId":     s.Bin.ID,
			"sequence":  s.Sequence,
			"fillLevel": s.Bin.FillLevel,
			"critical":  s.Critical,
		})
	}

	_, err := r.client.ExecuteWrite(ctx, publishRouteCypher, map[string]any{
		"routeId":     plan.ID,
		"publishedAt": formatTime(plan.PublishedAt),
		"threshold":   plan.Threshold,
		"stops":       stops,
	})
	if err != nil {
		return fmt.Errorf("publish route %s: %w", plan.ID, err)
	}
	return nil
}

func binProperties(b domain.Bin) map[string]any {
	props := map[string]any{
		"lat":       b.Lat,
		"lng":       b.Lng,
		"category":  string(b.Category),
		"fillLevel": b.FillLevel,
		"status":    string(b.Status),
		"address":   b.Address,
	}
	if b.LastCollection != nil {
		props["lastCollection"] = formatTime(*b.LastCollection)
	}
	return props
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

const upsertBinCypher = `
MERGE (b:Bin {id: $binId})
SET b += $props
`

const upsertBinsCypher = `
UNWIND $bins AS row
MERGE (b:Bin {id: row.id})
SET b += row.props
`

const publishRouteCypher = `
OPTIONAL MATCH (old:Route {latest: true})
WHERE old.id <> $routeId
SET old.latest = false
WITH count(old) AS retired
MERGE (r:Route {id: $routeId})
SET r.publishedAt = $publishedAt,
    r.threshold = $threshold,
    r.stopCount = size($stops),
    r.latest = true
WITH r
UNWIND $stops AS stop
MATCH (b:Bin {id: stop.binId})
MERGE (r)-[s:STOP {sequence: stop.sequence}]->(b)
SET s.fillLevel = stop.fillLevel,
    s.critical = stop.critical
`
