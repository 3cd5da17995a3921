// Package routing derives the admin dispatch views from the bin network.
package routing

import (
	"sort"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
)

// DefaultThreshold is the fill level a bin must exceed to need a pickup.
const DefaultThreshold = 50

// Stop is one entry of a priority route.
type Stop struct {
	Sequence int        `json:"sequence"`
	Bin      domain.Bin `json:"bin"`
	Critical bool       `json:"critical"`
}

// PriorityRoute keeps bins whose fill level is strictly above threshold and
// orders them fullest first. Bins with equal fill keep their input order.
// The input slice is not modified.
func PriorityRoute(bins []domain.Bin, threshold int) []domain.Bin {
	route := make([]domain.Bin, 0, len(bins))
	for _, b := range bins {
		if b.FillLevel > threshold {
			route = append(route, b)
		}
	}
	sort.SliceStable(route, func(i, j int) bool {
		return route[i].FillLevel > route[j].FillLevel
	})
	return route
}

// Stops numbers a route from 1.
func Stops(route []domain.Bin) []Stop {
	stops := make([]Stop, 0, len(route))
	for i, b := range route {
		stops = append(stops, Stop{
			Sequence: i + 1,
			Bin:      b,
			Critical: b.Critical(),
		})
	}
	return stops
}
