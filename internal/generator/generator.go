package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/seed"
)

// Generator produces synthetic seed fixtures.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	nowFn func() time.Time
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumBins <= 0 {
		cfg.NumBins = def.NumBins
	}
	if cfg.NumNeighborhoods <= 0 {
		cfg.NumNeighborhoods = def.NumNeighborhoods
	}
	if cfg.Spread <= 0 {
		cfg.Spread = def.Spread
	}
	if cfg.MaintenanceChance < 0 {
		cfg.MaintenanceChance = 0
	}
	if cfg.CollectedWithinHrs <= 0 {
		cfg.CollectedWithinHrs = def.CollectedWithinHrs
	}
	if cfg.CenterLat == 0 && cfg.CenterLng == 0 {
		cfg.CenterLat, cfg.CenterLng = def.CenterLat, def.CenterLng
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		nowFn: time.Now,
	}
}

// WithClock pins the reference time used for collection timestamps.
func (g *Generator) WithClock(nowFn func() time.Time) *Generator {
	if nowFn != nil {
		g.nowFn = nowFn
	}
	return g
}

// Generate builds a fixture. The scan catalog is taken from the embedded
// default fixture. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (seed.Fixture, error) {
	base, err := seed.Default()
	if err != nil {
		return seed.Fixture{}, err
	}

	neighborhoods := g.neighborhoods()
	now := g.nowFn().UTC().Truncate(time.Minute)

	bins := make([]domain.Bin, g.cfg.NumBins)
	for i := range bins {
		if err := ctx.Err(); err != nil {
			return seed.Fixture{}, err
		}
		bins[i] = g.bin(i, now)
	}

	fx := seed.Fixture{
		User:        g.user(neighborhoods[0]),
		Bins:        bins,
		Leaderboard: g.leaderboard(neighborhoods),
		Catalog:     base.Catalog,
	}
	return fx, nil
}

var (
	streets = []string{
		"Broadway", "Canal St.", "Houston St.", "Bowery", "Lafayette St.",
		"Delancey St.", "Hudson St.", "Greenwich St.", "Varick St.", "Mott St.",
	}
	landmarks = []string{"Nexus", "Junction", "Terminal", "Outpost", "Dock", "Relay", "Hub", "Node"}
	compass   = []string{"North", "South", "East", "West", "Core", "Rim"}
	ranks     = []string{"Scrapper", "Recycler", "Salvager", "Technomancer", "Archon"}
	handles   = []string{"Cyber", "Neon", "Chrome", "Volt", "Pixel", "Static"}
	suffixes  = []string{"Scavenger", "Runner", "Tinker", "Ghost", "Warden"}
)

func (g *Generator) pick(values []string) string {
	return values[g.rand.Intn(len(values))]
}

func (g *Generator) neighborhoods() []string {
	out := make([]string, g.cfg.NumNeighborhoods)
	for i := range out {
		out[i] = fmt.Sprintf("Sector %d (%s)", i+1, g.pick(compass))
	}
	return out
}

func (g *Generator) user(home string) domain.User {
	return domain.User{
		ID:           "u_001",
		Name:         g.pick(handles) + g.pick(suffixes),
		Credits:      g.rand.Intn(5000),
		CarbonSaved:  round1(g.rand.Float64() * 200),
		Rank:         g.pick(ranks),
		Neighborhood: home,
	}
}

func (g *Generator) bin(i int, now time.Time) domain.Bin {
	categories := []domain.BinCategory{domain.BinGeneral, domain.BinBattery, domain.BinMobile}
	fill := g.rand.Intn(domain.MaxFillLevel + 1)

	status := domain.BinActive
	switch {
	case g.rand.Float64() < g.cfg.MaintenanceChance:
		status = domain.BinMaintenance
	case fill > domain.CriticalFillLevel:
		status = domain.BinFull
	}

	b := domain.Bin{
		ID:        fmt.Sprintf("b_%03d", 101+i),
		Lat:       round4(g.cfg.CenterLat + g.offset()),
		Lng:       round4(g.cfg.CenterLng + g.offset()),
		Category:  categories[g.rand.Intn(len(categories))],
		FillLevel: fill,
		Status:    status,
		Address:   fmt.Sprintf("%s %s", g.pick(streets), g.pick(landmarks)),
	}
	if g.rand.Intn(2) == 0 {
		at := now.Add(-time.Duration(g.rand.Intn(g.cfg.CollectedWithinHrs)+1) * time.Hour)
		b.LastCollection = &at
	}
	return b
}

func (g *Generator) offset() float64 {
	return (g.rand.Float64()*2 - 1) * g.cfg.Spread
}

func (g *Generator) leaderboard(neighborhoods []string) []domain.LeaderboardEntry {
	trends := []domain.Trend{domain.TrendUp, domain.TrendDown, domain.TrendStable}
	entries := make([]domain.LeaderboardEntry, len(neighborhoods))
	for i, n := range neighborhoods {
		entries[i] = domain.LeaderboardEntry{
			Neighborhood: n,
			Score:        1000 + g.rand.Intn(15000),
			Trend:        trends[g.rand.Intn(len(trends))],
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
