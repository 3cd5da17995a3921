// Package store owns the in-memory application state: the current user, the
// bin network, the neighborhood leaderboard, the map selection and the
// deposit ledger.
//
// A Store is the single writer for that state. Every mutation takes the same
// lock, so concurrent callers are serialized, and every read hands back a
// copy so no caller can change state behind the store's back.
package store

import (
	"sync"
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/events"
)

// Mutator is the mutation contract the screens use.
type Mutator interface {
	UpdateCredits(delta int)
	UpdateCarbon(delta float64)
	SetActiveBin(id *string)
	CollectBin(id string) bool
	AddBinItem(weight float64, credits int)
}

// Reader exposes copies of the current state.
type Reader interface {
	User() domain.User
	Bins() []domain.Bin
	Bin(id string) (domain.Bin, error)
	Leaderboard() []domain.LeaderboardEntry
	ActiveBinID() *string
	Snapshot() domain.Snapshot
}

// Options tune a Store. CarbonPerKg is used as given, zero included; callers
// take it from tuning.Rules. Publish is called with the store lock held, so
// a Publisher must not block or call back into the store.
type Options struct {
	CarbonPerKg float64
	Publisher   events.Publisher
	Now         func() time.Time
}

// Store is the process-wide state container.
type Store struct {
	mu sync.RWMutex

	user         domain.User
	bins         []domain.Bin
	leaderboard  []domain.LeaderboardEntry
	activeBinID  *string
	transactions []domain.Transaction

	carbonPerKg float64
	pub         events.Publisher
	nowFn       func() time.Time
}

var (
	_ Mutator = (*Store)(nil)
	_ Reader  = (*Store)(nil)
)

// New builds a Store from initial state. The slices are copied.
func New(user domain.User, bins []domain.Bin, leaderboard []domain.LeaderboardEntry, opts Options) *Store {
	if opts.Publisher == nil {
		opts.Publisher = events.Discard{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		user:        user,
		bins:        make([]domain.Bin, 0, len(bins)),
		leaderboard: append([]domain.LeaderboardEntry(nil), leaderboard...),
		carbonPerKg: opts.CarbonPerKg,
		pub:         opts.Publisher,
		nowFn:       opts.Now,
	}
	for _, b := range bins {
		b = b.Clone()
		b.FillLevel = domain.ClampFillLevel(b.FillLevel)
		s.bins = append(s.bins, b)
	}
	return s
}

// UpdateCredits adds delta to the user's credit balance. No bounds are applied.
func (s *Store) UpdateCredits(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Credits += delta
	s.pub.Publish(events.KindUserUpdated, s.user)
}

// UpdateCarbon adds delta kilograms to the user's carbon saved.
func (s *Store) UpdateCarbon(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.CarbonSaved += delta
	s.pub.Publish(events.KindUserUpdated, s.user)
}

// SetActiveBin moves the map selection. A nil id clears it; the id is not
// checked against the bin set.
func (s *Store) SetActiveBin(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeBinID = copyID(id)
	s.pub.Publish(events.KindBinSelected, map[string]*string{"activeBinId": copyID(s.activeBinID)})
}

// CollectBin empties the bin with the given id and reports whether one
// matched. An unknown id leaves the state untouched.
func (s *Store) CollectBin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.bins[idx].Collect(s.nowFn().UTC())
	s.pub.Publish(events.KindBinCollected, s.bins[idx].Clone())
	return true
}

// AddBinItem credits a deposit: credits are added as given and carbon grows
// by weight times the carbon-per-kg rate. Neither value is validated.
func (s *Store) AddBinItem(weight float64, credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Credits += credits
	s.user.CarbonSaved += weight * s.carbonPerKg
	s.pub.Publish(events.KindUserUpdated, s.user)
}

// RecordTransaction appends a deposit to the ledger.
func (s *Store) RecordTransaction(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	s.pub.Publish(events.KindTransactionRecorded, tx)
}

// Transactions returns the ledger, oldest first.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Transaction{}, s.transactions...)
}

// User returns the current user.
func (s *Store) User() domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Bins returns the bins in their original order.
func (s *Store) Bins() []domain.Bin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.binsLocked()
}

// Bin looks up a single bin.
func (s *Store) Bin(id string) (domain.Bin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Bin{}, domain.ErrBinNotFound
	}
	return s.bins[idx].Clone(), nil
}

// Leaderboard returns the neighborhood ranking. It is never mutated.
func (s *Store) Leaderboard() []domain.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LeaderboardEntry{}, s.leaderboard...)
}

// ActiveBinID returns the selected bin id, or nil when nothing is selected.
func (s *Store) ActiveBinID() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyID(s.activeBinID)
}

// Snapshot copies the whole state under one read lock.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Snapshot{
		User:        s.user,
		Bins:        s.binsLocked(),
		Leaderboard: append([]domain.LeaderboardEntry{}, s.leaderboard...),
		ActiveBinID: copyID(s.activeBinID),
	}
}

func (s *Store) binsLocked() []domain.Bin {
	out := make([]domain.Bin, len(s.bins))
	for i, b := range s.bins {
		out[i] = b.Clone()
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i := range s.bins {
		if s.bins[i].ID == id {
			return i
		}
	}
	return -1
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
