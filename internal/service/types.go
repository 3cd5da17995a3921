package service

import (
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/routing"
)

// BinFilter selects which bins the map shows.
type BinFilter string

const (
	FilterAll     BinFilter = "All"
	FilterBattery BinFilter = BinFilter(domain.BinBattery)
	FilterMobile  BinFilter = BinFilter(domain.BinMobile)
)

// DepositItemLabel is the ledger label for kiosk deposits.
const DepositItemLabel = "Kiosk deposit"

// Profile is the data behind the user profile screen.
type Profile struct {
	User         domain.User               `json:"user"`
	Leaderboard  []domain.LeaderboardEntry `json:"leaderboard"`
	Transactions []domain.Transaction      `json:"transactions"`
}

// Dashboard is the data behind the admin command screen.
type Dashboard struct {
	Fleet     routing.FleetStats       `json:"fleet"`
	Route     []routing.Stop           `json:"route"`
	Threshold int                      `json:"threshold"`
	Analytics []routing.AnalyticsPoint `json:"analytics"`
	Bins      []domain.Bin             `json:"bins"`
}

// DispatchResult describes a route published to the graph.
type DispatchResult struct {
	RouteID     string         `json:"routeId"`
	PublishedAt time.Time      `json:"publishedAt"`
	Stops       []routing.Stop `json:"stops"`
	BinsSynced  int            `json:"binsSynced"`
}
