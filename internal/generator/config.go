package generator

// Config drives the synthetic fixture generator.
type Config struct {
	NumBins          int
	NumNeighborhoods int
	CenterLat        float64
	CenterLng        float64
	// Spread is the maximum offset in degrees from the center.
	Spread             float64
	MaintenanceChance  float64
	CollectedWithinHrs int
	Seed               int64
}

// DefaultConfig returns settings for a city-sized demo fleet around lower Manhattan.
func DefaultConfig() Config {
	return Config{
		NumBins:            200,
		NumNeighborhoods:   8,
		CenterLat:          40.7128,
		CenterLng:          -74.0060,
		Spread:             0.05,
		MaintenanceChance:  0.05,
		CollectedWithinHrs: 72,
		Seed:               42,
	}
}
