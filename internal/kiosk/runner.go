package kiosk

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/events"
)

// ErrRunnerStopped is returned by Send once the runner loop has exited.
var ErrRunnerStopped = errors.New("kiosk runner stopped")

// Sink receives completed deposits.
type Sink interface {
	Deposit(d Deposit)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Deposit)

func (f SinkFunc) Deposit(d Deposit) { f(d) }

// Timing holds the runner's timer durations.
type Timing struct {
	Tick         time.Duration
	VoiceDelay   time.Duration
	SuccessDwell time.Duration
}

// DefaultTiming matches the demo kiosk.
func DefaultTiming() Timing {
	return Timing{
		Tick:         200 * time.Millisecond,
		VoiceDelay:   1500 * time.Millisecond,
		SuccessDwell: 5 * time.Second,
	}
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Rules     Rules
	Timing    Timing
	Sink      Sink
	Publisher events.Publisher
	Logger    *slog.Logger
}

type request struct {
	ev   Event
	resp chan Machine
}

// Runner drives one kiosk. Its loop goroutine is the only writer of the
// machine; timer expiries are handled on the same goroutine as requests.
type Runner struct {
	rules  Rules
	timing Timing
	sink   Sink
	pub    events.Publisher
	logger *slog.Logger

	requests chan request
	done     chan struct{}

	mu   sync.RWMutex
	view Machine
}

// NewRunner constructs a Runner; call Run to start it.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Rules == (Rules{}) {
		cfg.Rules = DefaultRules()
	}
	def := DefaultTiming()
	if cfg.Timing.Tick <= 0 {
		cfg.Timing.Tick = def.Tick
	}
	if cfg.Timing.SuccessDwell <= 0 {
		cfg.Timing.SuccessDwell = def.SuccessDwell
	}
	if cfg.Timing.VoiceDelay < 0 {
		cfg.Timing.VoiceDelay = def.VoiceDelay
	}
	if cfg.Sink == nil {
		cfg.Sink = SinkFunc(func(Deposit) {})
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Discard{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		rules:    cfg.Rules,
		timing:   cfg.Timing,
		sink:     cfg.Sink,
		pub:      cfg.Publisher,
		logger:   cfg.Logger,
		requests: make(chan request),
		done:     make(chan struct{}),
		view:     NewMachine(),
	}
}

// State returns the latest machine.
func (r *Runner) State() Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Send delivers ev to the loop and returns the machine after it was applied.
func (r *Runner) Send(ctx context.Context, ev Event) (Machine, error) {
	req := request{ev: ev, resp: make(chan Machine, 1)}
	select {
	case r.requests <- req:
	case <-r.done:
		return Machine{}, ErrRunnerStopped
	case <-ctx.Done():
		return Machine{}, ctx.Err()
	}

	select {
	case m := <-req.resp:
		return m, nil
	case <-r.done:
		return Machine{}, ErrRunnerStopped
	case <-ctx.Done():
		return Machine{}, ctx.Err()
	}
}

// Run processes events until ctx is cancelled. Pending timers are dropped.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	lt := &loopTimers{}
	defer lt.stopAll()

	m := r.State()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-r.requests:
			m = r.apply(m, req.ev, lt)
			req.resp <- m
		case <-lt.tickC:
			m = r.apply(m, EventTick, lt)
		case <-lt.voiceC:
			lt.voiceC = nil
			m = r.apply(m, EventStart, lt)
		case <-lt.dwellC:
			lt.dwellC = nil
			m = r.apply(m, EventDwellElapsed, lt)
		}
	}
}

func (r *Runner) apply(m Machine, ev Event, lt *loopTimers) Machine {
	next, effects := Transition(m, ev, r.rules)
	for _, eff := range effects {
		switch eff.Kind {
		case EffectScheduleStart:
			lt.voiceC = lt.resetVoice(r.timing.VoiceDelay)
		case EffectStartWeighing:
			lt.tickC = lt.startTicker(r.timing.Tick)
		case EffectStopWeighing:
			lt.stopTicker()
		case EffectDeposit:
			r.logger.Info("kiosk deposit completed", "weight", eff.Deposit.Weight, "credits", eff.Deposit.Credits)
			r.sink.Deposit(eff.Deposit)
		case EffectScheduleReset:
			lt.dwellC = lt.resetDwell(r.timing.SuccessDwell)
		}
	}

	if next == m {
		return m
	}
	if next.State != m.State {
		r.logger.Debug("kiosk transition", "from", m.State, "to", next.State, "event", ev)
	}
	r.mu.Lock()
	r.view = next
	r.mu.Unlock()
	r.pub.Publish(events.KindKioskChanged, next)
	return next
}

type loopTimers struct {
	ticker *time.Ticker
	voice  *time.Timer
	dwell  *time.Timer

	tickC  <-chan time.Time
	voiceC <-chan time.Time
	dwellC <-chan time.Time
}

func (lt *loopTimers) startTicker(d time.Duration) <-chan time.Time {
	lt.stopTicker()
	lt.ticker = time.NewTicker(d)
	return lt.ticker.C
}

func (lt *loopTimers) stopTicker() {
	if lt.ticker != nil {
		lt.ticker.Stop()
		lt.ticker = nil
	}
	lt.tickC = nil
}

func (lt *loopTimers) resetVoice(d time.Duration) <-chan time.Time {
	if lt.voice != nil {
		lt.voice.Stop()
	}
	lt.voice = time.NewTimer(d)
	return lt.voice.C
}

func (lt *loopTimers) resetDwell(d time.Duration) <-chan time.Time {
	if lt.dwell != nil {
		lt.dwell.Stop()
	}
	lt.dwell = time.NewTimer(d)
	return lt.dwell.C
}

func (lt *loopTimers) stopAll() {
	lt.stopTicker()
	if lt.voice != nil {
		lt.voice.Stop()
	}
	if lt.dwell != nil {
		lt.dwell.Stop()
	}
}
