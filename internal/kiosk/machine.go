// Package kiosk models the smart-bin deposit flow
// Idle -> ScanQR -> Deposit -> Success -> Idle.
//
// Transition is pure: it maps the current machine and an event to the next
// machine plus the side effects the caller must carry out. Runner owns a
// machine and performs those effects with real timers.
package kiosk

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type State string

const (
	StateIdle    State = "IDLE"
	StateScanQR  State = "SCAN_QR"
	StateDeposit State = "DEPOSIT"
	StateSuccess State = "SUCCESS"
)

type Event string

const (
	// EventStart is a tap on the idle screen or the delayed voice start.
	EventStart Event = "start"
	// EventVoice asks the kiosk to listen for "start".
	EventVoice Event = "voice"
	// EventScan simulates a successful QR scan.
	EventScan Event = "scan"
	// EventFinish is the operator confirming the deposit.
	EventFinish Event = "finish"
	// EventTick advances the simulated scale.
	EventTick Event = "tick"
	// EventDwellElapsed ends the success screen.
	EventDwellElapsed Event = "dwell_elapsed"
)

const (
	PromptIdle      = "Touch screen or speak 'Start' to begin"
	PromptListening = "Listening... Say 'Start'"
	PromptScanQR    = "Scan App QR Code"
	PromptDeposit   = "HATCH OPEN"
	PromptSuccess   = "LEVEL UP!"
)

// ErrUnknownEvent is returned by ParseEvent for names a client may not send.
var ErrUnknownEvent = errors.New("unknown kiosk event")

// ParseEvent maps a client-supplied name to one of the externally
// triggerable events. Timer events cannot be sent from outside.
func ParseEvent(name string) (Event, error) {
	switch Event(strings.ToLower(strings.TrimSpace(name))) {
	case EventStart:
		return EventStart, nil
	case EventVoice:
		return EventVoice, nil
	case EventScan:
		return EventScan, nil
	case EventFinish:
		return EventFinish, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

// Rules are the scale and credit constants used by Transition.
type Rules struct {
	WeightStep   float64
	WeightCap    float64
	CreditsPerKg float64
}

// DefaultRules matches the demo kiosk: 0.05 kg per tick up to 0.45 kg,
// 100 credits per kg.
func DefaultRules() Rules {
	return Rules{WeightStep: 0.05, WeightCap: 0.45, CreditsPerKg: 100}
}

// Deposit is a completed drop-off.
type Deposit struct {
	Weight  float64 `json:"weight"`
	Credits int     `json:"credits"`
}

// Machine is the full kiosk state.
type Machine struct {
	State       State    `json:"state"`
	Weight      float64  `json:"weight"`
	Weighing    bool     `json:"weighing"`
	Prompt      string   `json:"prompt"`
	LastDeposit *Deposit `json:"lastDeposit,omitempty"`
}

// NewMachine returns an idle kiosk.
func NewMachine() Machine {
	return Machine{State: StateIdle, Prompt: PromptIdle}
}

type EffectKind string

const (
	EffectScheduleStart EffectKind = "schedule_start"
	EffectStartWeighing EffectKind = "start_weighing"
	EffectStopWeighing  EffectKind = "stop_weighing"
	EffectDeposit       EffectKind = "deposit"
	EffectScheduleReset EffectKind = "schedule_reset"
)

// Effect is a side effect requested by a transition.
type Effect struct {
	Kind    EffectKind
	Deposit Deposit
}

// Transition applies ev to m. Events that do not apply to the current state
// leave the machine unchanged and produce no effects.
func Transition(m Machine, ev Event, r Rules) (Machine, []Effect) {
	switch m.State {
	case StateIdle:
		switch ev {
		case EventStart:
			m.State = StateScanQR
			m.Prompt = PromptScanQR
			return m, nil
		case EventVoice:
			m.Prompt = PromptListening
			return m, []Effect{{Kind: EffectScheduleStart}}
		}

	case StateScanQR:
		if ev == EventScan {
			m.State = StateDeposit
			m.Prompt = PromptDeposit
			m.Weight = 0
			m.Weighing = true
			return m, []Effect{{Kind: EffectStartWeighing}}
		}

	case StateDeposit:
		switch ev {
		case EventTick:
			if !m.Weighing {
				return m, nil
			}
			m.Weight = roundWeight(m.Weight + r.WeightStep)
			if m.Weight >= r.WeightCap-weightEpsilon {
				m.Weighing = false
				return m, []Effect{{Kind: EffectStopWeighing}}
			}
			return m, nil
		case EventFinish:
			d := Deposit{Weight: m.Weight, Credits: Credits(m.Weight, r.CreditsPerKg)}
			m.State = StateSuccess
			m.Prompt = PromptSuccess
			m.LastDeposit = &d
			effects := make([]Effect, 0, 3)
			if m.Weighing {
				m.Weighing = false
				effects = append(effects, Effect{Kind: EffectStopWeighing})
			}
			effects = append(effects,
				Effect{Kind: EffectDeposit, Deposit: d},
				Effect{Kind: EffectScheduleReset},
			)
			return m, effects
		}

	case StateSuccess:
		if ev == EventDwellElapsed {
			return Machine{State: StateIdle, Prompt: PromptIdle, LastDeposit: m.LastDeposit}, nil
		}
	}
	return m, nil
}

const weightEpsilon = 1e-9

// roundWeight keeps the scale reading at two decimals, like the display.
func roundWeight(w float64) float64 {
	return math.Round(w*100) / 100
}

// Credits converts a weight into whole EcoCoins, floor(weight * perKg).
// The product is rounded to micro-credits first so 0.29 kg yields 29, not 28.
func Credits(weight, perKg float64) int {
	return int(math.Floor(math.Round(weight*perKg*1e6) / 1e6))
}
