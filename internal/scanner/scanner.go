// Package scanner simulates the AR item scanner: the camera view, a fixed
// analysis delay and a result picked from a static catalog.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
)

type Step string

const (
	StepCamera    Step = "camera"
	StepAnalyzing Step = "analyzing"
	StepResult    Step = "result"
)

var (
	// ErrCameraUnavailable is reported by cameras that cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrEmptyCatalog means there is nothing to pick a result from.
	ErrEmptyCatalog = errors.New("scan catalog is empty")
	// ErrScanInProgress rejects a second scan while one is analyzing.
	ErrScanInProgress = errors.New("scan already in progress")
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// NewSeededPicker returns a uniform Picker backed by its own source.
func NewSeededPicker(seed int64) Picker {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		return rng.Intn(n)
	}
}

// Camera is the device feed shown behind the reticle. It is cosmetic.
type Camera interface {
	Open(ctx context.Context) error
}

// NoCamera is the server-side default: there is never a device.
type NoCamera struct{}

func (NoCamera) Open(context.Context) error { return ErrCameraUnavailable }

// View is what the scan screen renders.
type View struct {
	Step   Step                `json:"step"`
	Result *domain.ScannedItem `json:"result,omitempty"`
}

// Config wires a Scanner.
type Config struct {
	Catalog      []domain.ScannedItem
	AnalyzeDelay time.Duration
	Picker       Picker
	Camera       Camera
	Logger       *slog.Logger
}

// Scanner holds one scan session.
type Scanner struct {
	catalog []domain.ScannedItem
	delay   time.Duration
	pick    Picker
	camera  Camera
	logger  *slog.Logger

	mu     sync.Mutex
	step   Step
	result *domain.ScannedItem
}

// New builds a Scanner in the camera step.
func New(cfg Config) *Scanner {
	if cfg.Picker == nil {
		cfg.Picker = NewSeededPicker(time.Now().UnixNano())
	}
	if cfg.Camera == nil {
		cfg.Camera = NoCamera{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	catalog := make([]domain.ScannedItem, len(cfg.Catalog))
	for i, item := range cfg.Catalog {
		catalog[i] = item.Clone()
	}
	return &Scanner{
		catalog: catalog,
		delay:   cfg.AnalyzeDelay,
		pick:    cfg.Picker,
		camera:  cfg.Camera,
		logger:  cfg.Logger,
		step:    StepCamera,
	}
}

// Catalog returns the candidate items.
func (s *Scanner) Catalog() []domain.ScannedItem {
	out := make([]domain.ScannedItem, len(s.catalog))
	for i, item := range s.catalog {
		out[i] = item.Clone()
	}
	return out
}

// View returns the current step and result.
func (s *Scanner) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// OpenCamera attaches the device feed. Failures are logged and never
// interrupt the flow.
func (s *Scanner) OpenCamera(ctx context.Context) {
	if err := s.camera.Open(ctx); err != nil {
		s.logger.Warn("camera error", "error", err)
	}
}

// Scan runs camera -> analyzing -> result. It waits the analysis delay and
// then picks a catalog entry. If ctx ends during analysis the session goes
// back to the camera step.
func (s *Scanner) Scan(ctx context.Context) (domain.ScannedItem, error) {
	if len(s.catalog) == 0 {
		return domain.ScannedItem{}, ErrEmptyCatalog
	}

	s.mu.Lock()
	if s.step == StepAnalyzing {
		s.mu.Unlock()
		return domain.ScannedItem{}, ErrScanInProgress
	}
	s.step = StepAnalyzing
	s.result = nil
	s.mu.Unlock()

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		s.mu.Lock()
		s.step = StepCamera
		s.mu.Unlock()
		return domain.ScannedItem{}, fmt.Errorf("scan interrupted: %w", ctx.Err())
	}

	idx := s.pick(len(s.catalog))
	if idx < 0 || idx >= len(s.catalog) {
		idx = 0
	}
	item := s.catalog[idx].Clone()

	s.mu.Lock()
	s.step = StepResult
	s.result = &item
	s.mu.Unlock()

	s.logger.Debug("scan result", "item", item.ID, "repairable", item.Repairable)
	return item.Clone(), nil
}

// Reset discards the result and returns to the camera.
func (s *Scanner) Reset(ctx context.Context) View {
	s.mu.Lock()
	if s.step != StepAnalyzing {
		s.step = StepCamera
		s.result = nil
	}
	v := s.viewLocked()
	s.mu.Unlock()

	if v.Step == StepCamera {
		s.OpenCamera(ctx)
	}
	return v
}

func (s *Scanner) viewLocked() View {
	v := View{Step: s.step}
	if s.result != nil {
		item := s.result.Clone()
		v.Result = &item
	}
	return v
}
