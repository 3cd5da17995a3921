package server

import (
	"context"
	"fmt"

	"github.com/vanshika/circuitcycle/backend/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService verifies graph connectivity as part of health checks.
// A nil client means dispatch is disabled and the probe passes.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	if err := s.Client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	return nil
}

// ProbeFunc adapts a function to HealthService.
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Probe(ctx context.Context) error { return f(ctx) }

// Checks runs every probe and reports the first failure.
type Checks []HealthService

func (c Checks) Probe(ctx context.Context) error {
	for _, probe := range c {
		if probe == nil {
			continue
		}
		if err := probe.Probe(ctx); err != nil {
			return err
		}
	}
	return nil
}
