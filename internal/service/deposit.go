package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/kiosk"
)

// DepositMutator is the store surface a deposit touches.
type DepositMutator interface {
	AddBinItem(weight float64, credits int)
	Ledger
}

// DepositRecorder is the kiosk sink: it credits the user and appends the
// deposit to the ledger.
type DepositRecorder struct {
	store DepositMutator
	nowFn func() time.Time
	idFn  func() string
}

func NewDepositRecorder(store DepositMutator) *DepositRecorder {
	return &DepositRecorder{
		store: store,
		nowFn: time.Now,
		idFn:  uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (r *DepositRecorder) WithClock(nowFn func() time.Time) *DepositRecorder {
	if nowFn != nil {
		r.nowFn = nowFn
	}
	return r
}

// Deposit implements kiosk.Sink.
func (r *DepositRecorder) Deposit(d kiosk.Deposit) {
	r.store.AddBinItem(d.Weight, d.Credits)
	r.store.RecordTransaction(domain.Transaction{
		ID:        r.idFn(),
		Timestamp: r.nowFn().UTC(),
		Item:      DepositItemLabel,
		Weight:    d.Weight,
		Credits:   d.Credits,
	})
}

var _ kiosk.Sink = (*DepositRecorder)(nil)
