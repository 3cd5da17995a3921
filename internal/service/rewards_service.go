package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/kiosk"
	"github.com/vanshika/circuitcycle/backend/internal/repository"
	"github.com/vanshika/circuitcycle/backend/internal/routing"
	"github.com/vanshika/circuitcycle/backend/internal/scanner"
	"github.com/vanshika/circuitcycle/backend/internal/store"
)

// ErrDispatchDisabled is returned when no graph repository is configured.
var ErrDispatchDisabled = errors.New("route dispatch is disabled")

// StateStore is the store contract the service needs.
type StateStore interface {
	store.Mutator
	store.Reader
	Ledger
}

// Ledger keeps completed deposits.
type Ledger interface {
	RecordTransaction(tx domain.Transaction)
	Transactions() []domain.Transaction
}

// RouteRepository publishes bins and routes to the graph.
type RouteRepository interface {
	UpsertBin(ctx context.Context, bin domain.Bin) error
	UpsertBins(ctx context.Context, bins []domain.Bin) error
	PublishRoute(ctx context.Context, plan repository.RoutePlan) error
}

// KioskDriver is the kiosk runner as seen by the API.
type KioskDriver interface {
	State() kiosk.Machine
	Send(ctx context.Context, ev kiosk.Event) (kiosk.Machine, error)
}

// ScanSession is the scanner as seen by the API.
type ScanSession interface {
	View() scanner.View
	Scan(ctx context.Context) (domain.ScannedItem, error)
	Reset(ctx context.Context) scanner.View
}

// Dependencies wires a RewardsService. Routes may be nil.
type Dependencies struct {
	Store     StateStore
	Kiosk     KioskDriver
	Scanner   ScanSession
	Routes    RouteRepository
	Threshold int
	Logger    *slog.Logger
}

// RewardsService serves the user, kiosk and admin screens.
type RewardsService struct {
	store     StateStore
	kiosk     KioskDriver
	scanner   ScanSession
	routes    RouteRepository
	threshold int
	logger    *slog.Logger
	nowFn     func() time.Time
	idFn      func() string
}

// NewRewardsService constructs a RewardsService. deps.Threshold is used as
// given; zero routes every bin with any fill.
func NewRewardsService(deps Dependencies) *RewardsService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &RewardsService{
		store:     deps.Store,
		kiosk:     deps.Kiosk,
		scanner:   deps.Scanner,
		routes:    deps.Routes,
		threshold: deps.Threshold,
		logger:    deps.Logger,
		nowFn:     time.Now,
		idFn:      uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *RewardsService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// WithIDs overrides the route id generator.
func (s *RewardsService) WithIDs(idFn func() string) {
	if idFn != nil {
		s.idFn = idFn
	}
}

// DispatchEnabled reports whether a graph repository is configured.
func (s *RewardsService) DispatchEnabled() bool {
	return s.routes != nil
}

func (s *RewardsService) Snapshot() domain.Snapshot {
	return s.store.Snapshot()
}

// Profile returns the user, leaderboard and deposit history.
func (s *RewardsService) Profile() Profile {
	return Profile{
		User:         s.store.User(),
		Leaderboard:  s.store.Leaderboard(),
		Transactions: s.store.Transactions(),
	}
}

func (s *RewardsService) Transactions() []domain.Transaction {
	return s.store.Transactions()
}

// ListBins returns every bin for FilterAll, otherwise bins of the chosen
// category plus General bins, in store order.
func (s *RewardsService) ListBins(filter BinFilter) []domain.Bin {
	bins := s.store.Bins()
	if filter == "" || filter == FilterAll {
		return bins
	}
	out := make([]domain.Bin, 0, len(bins))
	for _, b := range bins {
		if string(b.Category) == string(filter) || b.Category == domain.BinGeneral {
			out = append(out, b)
		}
	}
	return out
}

// ActiveBin returns the selected bin, or nil when nothing is selected or the
// selection points at an unknown id.
func (s *RewardsService) ActiveBin() *domain.Bin {
	id := s.store.ActiveBinID()
	if id == nil {
		return nil
	}
	bin, err := s.store.Bin(*id)
	if err != nil {
		return nil
	}
	return &bin
}

// SelectBin sets the selection pointer. A nil or blank id clears it.
func (s *RewardsService) SelectBin(id *string) *domain.Bin {
	s.store.SetActiveBin(normalizeBinID(id))
	return s.ActiveBin()
}

func (s *RewardsService) AdjustCredits(delta int) domain.User {
	s.store.UpdateCredits(delta)
	return s.store.User()
}

func (s *RewardsService) AdjustCarbon(delta float64) domain.User {
	s.store.UpdateCarbon(delta)
	return s.store.User()
}

func (s *RewardsService) ScanView() scanner.View {
	return s.scanner.View()
}

// Scan runs one analysis and returns the resulting view.
func (s *RewardsService) Scan(ctx context.Context) (scanner.View, error) {
	if _, err := s.scanner.Scan(ctx); err != nil {
		return s.scanner.View(), err
	}
	return s.scanner.View(), nil
}

// ResetScan returns the scanner to the camera step. Rewards are not
// credited here; only kiosk deposits earn credits.
func (s *RewardsService) ResetScan(ctx context.Context) scanner.View {
	return s.scanner.Reset(ctx)
}

func (s *RewardsService) KioskState() kiosk.Machine {
	return s.kiosk.State()
}

// SendKioskEvent parses and forwards a user-facing kiosk event.
func (s *RewardsService) SendKioskEvent(ctx context.Context, name string) (kiosk.Machine, error) {
	ev, err := kiosk.ParseEvent(sanitizeString(name))
	if err != nil {
		return kiosk.Machine{}, err
	}
	return s.kiosk.Send(ctx, ev)
}

// Route computes the current priority route.
func (s *RewardsService) Route() []routing.Stop {
	return routing.Stops(routing.PriorityRoute(s.store.Bins(), s.threshold))
}

// Dashboard assembles the admin view from current state.
func (s *RewardsService) Dashboard() Dashboard {
	bins := s.store.Bins()
	return Dashboard{
		Fleet:     routing.Fleet(bins, s.threshold),
		Route:     routing.Stops(routing.PriorityRoute(bins, s.threshold)),
		Threshold: s.threshold,
		Analytics: routing.CollectionAnalytics(),
		Bins:      bins,
	}
}

// CollectBin empties a bin. Unknown ids leave state untouched and return
// domain.ErrBinNotFound so callers can report it.
func (s *RewardsService) CollectBin(id string) (domain.Bin, error) {
	id = sanitizeString(id)
	if !s.store.CollectBin(id) {
		return domain.Bin{}, fmt.Errorf("collect %q: %w", id, domain.ErrBinNotFound)
	}
	return s.store.Bin(id)
}

// DispatchRoute syncs bins to the graph and publishes the current route.
func (s *RewardsService) DispatchRoute(ctx context.Context) (DispatchResult, error) {
	if s.routes == nil {
		return DispatchResult{}, ErrDispatchDisabled
	}

	bins := s.store.Bins()
	if err := s.routes.UpsertBins(ctx, bins); err != nil {
		return DispatchResult{}, fmt.Errorf("sync bins: %w", err)
	}

	plan := repository.RoutePlan{
		ID:          s.idFn(),
		PublishedAt: s.nowFn().UTC(),
		Threshold:   s.threshold,
		Stops:       routing.Stops(routing.PriorityRoute(bins, s.threshold)),
	}
	if err := s.routes.PublishRoute(ctx, plan); err != nil {
		return DispatchResult{}, err
	}

	s.logger.Info("route dispatched", "route_id", plan.ID, "stops", len(plan.Stops))
	return DispatchResult{
		RouteID:     plan.ID,
		PublishedAt: plan.PublishedAt,
		Stops:       plan.Stops,
		BinsSynced:  len(bins),
	}, nil
}
