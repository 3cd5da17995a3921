package routing

import "github.com/vanshika/circuitcycle/backend/internal/domain"

// FleetStats summarises the bin network for the dashboard header.
type FleetStats struct {
	Total       int                        `json:"total"`
	ByStatus    map[domain.BinStatus]int   `json:"byStatus"`
	ByCategory  map[domain.BinCategory]int `json:"byCategory"`
	Critical    int                        `json:"critical"`
	AverageFill float64                    `json:"averageFill"`
	NeedsPickup int                        `json:"needsPickup"`
}

// Fleet computes FleetStats against the given route threshold.
func Fleet(bins []domain.Bin, threshold int) FleetStats {
	stats := FleetStats{
		Total:      len(bins),
		ByStatus:   make(map[domain.BinStatus]int),
		ByCategory: make(map[domain.BinCategory]int),
	}
	if len(bins) == 0 {
		return stats
	}
	sum := 0
	for _, b := range bins {
		stats.ByStatus[b.Status]++
		stats.ByCategory[b.Category]++
		if b.Critical() {
			stats.Critical++
		}
		if b.FillLevel > threshold {
			stats.NeedsPickup++
		}
		sum += b.FillLevel
	}
	stats.AverageFill = float64(sum) / float64(len(bins))
	return stats
}

// AnalyticsPoint is one sample of the collection analytics chart.
type AnalyticsPoint struct {
	Name     string `json:"name"`
	Waste    int    `json:"waste"`
	Recovery int    `json:"recovery"`
}

// CollectionAnalytics returns the fixed 30-day chart series shown on the
// dashboard.
func CollectionAnalytics() []AnalyticsPoint {
	return []AnalyticsPoint{
		{Name: "Day 1", Waste: 400, Recovery: 240},
		{Name: "Day 5", Waste: 300, Recovery: 139},
		{Name: "Day 10", Waste: 200, Recovery: 980},
		{Name: "Day 15", Waste: 278, Recovery: 390},
		{Name: "Day 20", Waste: 189, Recovery: 480},
		{Name: "Day 25", Waste: 239, Recovery: 380},
		{Name: "Day 30", Waste: 349, Recovery: 430},
	}
}
