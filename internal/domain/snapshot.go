package domain

// Snapshot is a point-in-time copy of the whole application state.
type Snapshot struct {
	User        User               `json:"user"`
	Bins        []Bin              `json:"bins"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	ActiveBinID *string            `json:"activeBinId"`
}
