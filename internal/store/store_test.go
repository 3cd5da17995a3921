package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/events"
)

type recordingPublisher struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingPublisher) Publish(kind string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recordingPublisher) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kinds...)
}

var fixedNow = time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	user := domain.User{ID: "u_001", Name: "CyberScavenger", Credits: 1250, CarbonSaved: 45.2}
	bins := []domain.Bin{
		{ID: "b_101", Category: domain.BinMobile, FillLevel: 45, Status: domain.BinActive},
		{ID: "b_102", Category: domain.BinBattery, FillLevel: 92, Status: domain.BinFull},
		{ID: "b_103", Category: domain.BinGeneral, FillLevel: 12, Status: domain.BinActive},
		{ID: "b_104", Category: domain.BinMobile, FillLevel: 78, Status: domain.BinMaintenance},
		{ID: "b_105", Category: domain.BinBattery, FillLevel: 30, Status: domain.BinActive},
	}
	board := []domain.LeaderboardEntry{
		{Neighborhood: "Sector 7 (North)", Score: 12500, Trend: domain.TrendUp},
		{Neighborhood: "Sector 4 (South)", Score: 11200, Trend: domain.TrendDown},
	}
	s := New(user, bins, board, Options{
		CarbonPerKg: 0.5,
		Publisher:   pub,
		Now:         func() time.Time { return fixedNow },
	})
	return s, pub
}

func TestStore_UpdateCreditsComposes(t *testing.T) {
	s, _ := newTestStore(t)

	deltas := []int{10, -300, 0, 7, 5000, -12000}
	want := s.User().Credits
	for _, d := range deltas {
		s.UpdateCredits(d)
		want += d
		assert.Equal(t, want, s.User().Credits)
	}
	// negative balances are allowed
	assert.Negative(t, s.User().Credits)
}

func TestStore_UpdateCarbon(t *testing.T) {
	s, pub := newTestStore(t)

	s.UpdateCarbon(1.3)
	s.UpdateCarbon(-0.5)

	assert.InDelta(t, 46.0, s.User().CarbonSaved, 1e-9)
	assert.Equal(t, []string{events.KindUserUpdated, events.KindUserUpdated}, pub.Kinds())
}

func TestStore_CollectBinExisting(t *testing.T) {
	s, pub := newTestStore(t)

	ok := s.CollectBin("b_102")
	require.True(t, ok)

	b, err := s.Bin("b_102")
	require.NoError(t, err)
	assert.Equal(t, 0, b.FillLevel)
	assert.Equal(t, domain.BinActive, b.Status)
	require.NotNil(t, b.LastCollection)
	assert.True(t, fixedNow.Equal(*b.LastCollection))
	assert.Equal(t, []string{events.KindBinCollected}, pub.Kinds())
}

func TestStore_CollectBinUnknownIsNoop(t *testing.T) {
	s, pub := newTestStore(t)
	before := s.Snapshot()

	ok := s.CollectBin("b_999")

	assert.False(t, ok)
	assert.Equal(t, before, s.Snapshot())
	assert.Empty(t, pub.Kinds())
}

func TestStore_AddBinItem(t *testing.T) {
	tests := []struct {
		name    string
		weight  float64
		credits int
	}{
		{"zero", 0, 0},
		{"kiosk cap", 0.45, 45},
		{"heavy", 12.5, 1250},
		{"credits only", 0, 99},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			before := s.User()

			s.AddBinItem(tc.weight, tc.credits)

			after := s.User()
			assert.Equal(t, before.Credits+tc.credits, after.Credits)
			assert.InDelta(t, before.CarbonSaved+tc.weight*0.5, after.CarbonSaved, 1e-9)
		})
	}
}

func TestStore_AddBinItemUsesConfiguredRate(t *testing.T) {
	s := New(domain.User{}, nil, nil, Options{CarbonPerKg: 2})
	s.AddBinItem(1.5, 0)
	assert.InDelta(t, 3.0, s.User().CarbonSaved, 1e-9)
}

func TestStore_AddBinItemZeroRateKeepsCarbon(t *testing.T) {
	s := New(domain.User{CarbonSaved: 4}, nil, nil, Options{CarbonPerKg: 0})
	s.AddBinItem(1, 0)
	assert.InDelta(t, 4.0, s.User().CarbonSaved, 1e-9)
}

func TestStore_SetActiveBin(t *testing.T) {
	s, pub := newTestStore(t)
	assert.Nil(t, s.ActiveBinID())

	id := "b_103"
	s.SetActiveBin(&id)
	id = "mutated"
	require.NotNil(t, s.ActiveBinID())
	assert.Equal(t, "b_103", *s.ActiveBinID())

	// unknown ids are accepted as-is
	ghost := "nowhere"
	s.SetActiveBin(&ghost)
	assert.Equal(t, "nowhere", *s.ActiveBinID())

	s.SetActiveBin(nil)
	assert.Nil(t, s.ActiveBinID())
	assert.Len(t, pub.Kinds(), 3)
}

func TestStore_LeaderboardNeverChanges(t *testing.T) {
	s, _ := newTestStore(t)
	before := s.Leaderboard()

	s.UpdateCredits(5)
	s.UpdateCarbon(2)
	s.CollectBin("b_101")
	s.CollectBin("missing")
	s.AddBinItem(0.45, 45)
	id := "b_101"
	s.SetActiveBin(&id)
	s.RecordTransaction(domain.Transaction{ID: "tx"})

	board := s.Leaderboard()
	board[0].Score = 0
	assert.Equal(t, before, s.Leaderboard())
}

func TestStore_ReadsAreCopies(t *testing.T) {
	s, _ := newTestStore(t)

	bins := s.Bins()
	bins[0].FillLevel = 100
	snap := s.Snapshot()
	snap.Bins[1].Status = domain.BinMaintenance

	b0, err := s.Bin("b_101")
	require.NoError(t, err)
	assert.Equal(t, 45, b0.FillLevel)
	b1, err := s.Bin("b_102")
	require.NoError(t, err)
	assert.Equal(t, domain.BinFull, b1.Status)
}

func TestStore_BinUnknown(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Bin("nope")
	assert.ErrorIs(t, err, domain.ErrBinNotFound)
}

func TestStore_NewClampsFillLevels(t *testing.T) {
	s := New(domain.User{}, []domain.Bin{{ID: "a", FillLevel: 130}, {ID: "b", FillLevel: -4}}, nil, Options{})
	bins := s.Bins()
	assert.Equal(t, 100, bins[0].FillLevel)
	assert.Equal(t, 0, bins[1].FillLevel)
}

func TestStore_TransactionsLedger(t *testing.T) {
	s, pub := newTestStore(t)
	assert.Empty(t, s.Transactions())

	s.RecordTransaction(domain.Transaction{ID: "t1", Weight: 0.45, Credits: 45})
	s.RecordTransaction(domain.Transaction{ID: "t2", Weight: 0.2, Credits: 20})

	txs := s.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "t2", txs[1].ID)
	assert.Equal(t, []string{events.KindTransactionRecorded, events.KindTransactionRecorded}, pub.Kinds())
}

func TestStore_ConcurrentMutationsAreSerialized(t *testing.T) {
	s, _ := newTestStore(t)
	start := s.User().Credits

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateCredits(1)
			s.AddBinItem(0, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, start+100, s.User().Credits)
}

func TestStore_EventsFollowMutationOrder(t *testing.T) {
	bus := events.NewBus()
	s := New(domain.User{ID: "u_001", Credits: 1250}, nil, nil, Options{CarbonPerKg: 0.5, Publisher: bus})

	const writers, rounds = 8, 200
	sub, cancel := bus.Subscribe(writers * rounds * 2)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if w%2 == 0 {
					s.UpdateCredits(1)
				} else {
					s.AddBinItem(0.1, 2)
				}
			}
		}(w)
	}
	wg.Wait()
	require.Zero(t, bus.Dropped())

	var (
		last    events.Event
		prevSeq uint64
		prevCr  int
	)
	for i := 0; i < writers*rounds; i++ {
		ev := <-sub
		require.Greater(t, ev.Seq, prevSeq)
		u, ok := ev.Payload.(domain.User)
		require.True(t, ok)
		// credits only grow here, so a later event never carries fewer
		require.GreaterOrEqual(t, u.Credits, prevCr)
		prevSeq, prevCr, last = ev.Seq, u.Credits, ev
	}
	assert.Equal(t, s.User(), last.Payload)
}
