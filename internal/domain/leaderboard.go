package domain

// Trend is the direction a neighborhood moved on the leaderboard.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// LeaderboardEntry is one row of the neighborhood ranking. Score is the
// total weight recycled by the neighborhood.
type LeaderboardEntry struct {
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	Score        int    `json:"score" yaml:"score"`
	Trend        Trend  `json:"trend" yaml:"trend"`
}
