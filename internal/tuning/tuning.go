// Package tuning holds the reward and timing rules of the demo. Every value
// has a default and can be overridden from a YAML file.
package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Rules are the business constants shared by the store, kiosk and scanner.
type Rules struct {
	// CarbonPerKg is the carbon credited per kilogram deposited.
	CarbonPerKg float64 `yaml:"carbon_per_kg"`
	// CreditsPerKg converts a deposited weight into EcoCoins.
	CreditsPerKg float64 `yaml:"credits_per_kg"`
	// PriorityThreshold is the fill level a bin must exceed to join the route.
	PriorityThreshold int `yaml:"priority_threshold"`

	Kiosk   KioskRules   `yaml:"kiosk"`
	Scanner ScannerRules `yaml:"scanner"`
}

// KioskRules drive the simulated scale and the screen timers.
type KioskRules struct {
	WeightStepKg   float64 `yaml:"weight_step_kg"`
	WeightCapKg    float64 `yaml:"weight_cap_kg"`
	TickIntervalMs int     `yaml:"tick_interval_ms"`
	VoiceDelayMs   int     `yaml:"voice_delay_ms"`
	SuccessDwellMs int     `yaml:"success_dwell_ms"`
}

type ScannerRules struct {
	AnalyzeDelayMs int `yaml:"analyze_delay_ms"`
}

// Defaults returns the rules the kiosk and dashboard shipped with.
func Defaults() Rules {
	return Rules{
		CarbonPerKg:       0.5,
		CreditsPerKg:      100,
		PriorityThreshold: 50,
		Kiosk: KioskRules{
			WeightStepKg:   0.05,
			WeightCapKg:    0.45,
			TickIntervalMs: 200,
			VoiceDelayMs:   1500,
			SuccessDwellMs: 5000,
		},
		Scanner: ScannerRules{
			AnalyzeDelayMs: 2500,
		},
	}
}

// Load overlays the YAML file at path on top of Defaults. An empty path
// returns the defaults.
func Load(path string) (Rules, error) {
	r := Defaults()
	if path == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("rules.yaml: %w", err)
	}
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// Validate rejects values the kiosk and store cannot run with.
func (r Rules) Validate() error {
	if r.Kiosk.WeightStepKg <= 0 {
		return fmt.Errorf("kiosk.weight_step_kg must be positive, got %v", r.Kiosk.WeightStepKg)
	}
	if r.Kiosk.WeightCapKg < r.Kiosk.WeightStepKg {
		return fmt.Errorf("kiosk.weight_cap_kg %v is below the step %v", r.Kiosk.WeightCapKg, r.Kiosk.WeightStepKg)
	}
	if r.Kiosk.TickIntervalMs <= 0 || r.Kiosk.SuccessDwellMs <= 0 || r.Kiosk.VoiceDelayMs < 0 {
		return fmt.Errorf("kiosk timers must be positive")
	}
	if r.Scanner.AnalyzeDelayMs < 0 {
		return fmt.Errorf("scanner.analyze_delay_ms must not be negative")
	}
	if r.PriorityThreshold < 0 || r.PriorityThreshold > 100 {
		return fmt.Errorf("priority_threshold %d is outside [0,100]", r.PriorityThreshold)
	}
	return nil
}

func (k KioskRules) TickInterval() time.Duration {
	return time.Duration(k.TickIntervalMs) * time.Millisecond
}

func (k KioskRules) VoiceDelay() time.Duration {
	return time.Duration(k.VoiceDelayMs) * time.Millisecond
}

func (k KioskRules) SuccessDwell() time.Duration {
	return time.Duration(k.SuccessDwellMs) * time.Millisecond
}

func (s ScannerRules) AnalyzeDelay() time.Duration {
	return time.Duration(s.AnalyzeDelayMs) * time.Millisecond
}
