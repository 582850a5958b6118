package evaluator

import (
	"errors"
	"fmt"

	"iwled/internal/config"
	"iwled/internal/models"
)

// ErrMissingDefault means a field had neither a client override nor a global value.
var ErrMissingDefault = errors.New("missing default")

// ResolutionError names the field that could not be resolved.
type ResolutionError struct {
	Client string
	Field  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("client %s: %v for %s", e.Client, ErrMissingDefault, e.Field)
}

func (e *ResolutionError) Unwrap() error {
	return ErrMissingDefault
}

// Normalize maps a dBm reading onto a 0-100 scale: 100 + reading, never below zero.
func Normalize(r models.Reading) uint64 {
	n := 100 + int64(r)
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// Classify returns the state for a reading; a nil reading is no-signal.
// A normalized signal equal to the cap is low-signal.
func Classify(reading *models.Reading, lowSignalCap uint64) models.State {
	if reading == nil {
		return models.StateNoSignal
	}
	if Normalize(*reading) <= lowSignalCap {
		return models.StateLowSignal
	}
	return models.StateSignal
}

// Evaluate picks the trigger and delays for one client. Overrides are
// resolved on every call.
func Evaluate(global config.Global, client config.Client, reading *models.Reading) (models.EvaluationResult, error) {
	result := models.EvaluationResult{
		Client:  client.Name,
		Address: client.Address,
		LED:     client.LEDName,
		Reading: reading,
	}

	result.State = Classify(reading, effectiveCap(global, client))

	mode, override := modeFor(global, client, result.State)

	trigger := effectiveTrigger(mode, override)
	if trigger == "" {
		return models.EvaluationResult{}, &ResolutionError{Client: client.Name, Field: triggerKey(result.State)}
	}
	result.Trigger = trigger

	if reading != nil {
		result.Normalized = Normalize(*reading)
	}

	if result.IsTimer() {
		delay := effectiveDelay(mode, override)
		if result.State != models.StateNoSignal {
			// blink period scales with signal strength
			delay *= result.Normalized
		}
		result.DelayOn = delay
		result.DelayOff = delay
	}

	return result, nil
}

func triggerKey(state models.State) string {
	switch state {
	case models.StateNoSignal:
		return config.KeyNoSignalTrigger
	case models.StateLowSignal:
		return config.KeyLowSignalTrigger
	default:
		return config.KeySignalTrigger
	}
}

func modeFor(global config.Global, client config.Client, state models.State) (config.Mode, config.ModeOverride) {
	switch state {
	case models.StateNoSignal:
		return global.NoSignal, client.NoSignal
	case models.StateLowSignal:
		return global.LowSignal, client.LowSignal
	default:
		return global.Signal, client.Signal
	}
}

func effectiveCap(global config.Global, client config.Client) uint64 {
	if client.LowSignalCap != nil {
		return *client.LowSignalCap
	}
	return global.LowSignalCap
}

func effectiveTrigger(mode config.Mode, override config.ModeOverride) string {
	if override.Trigger != nil {
		return *override.Trigger
	}
	return mode.Trigger
}

func effectiveDelay(mode config.Mode, override config.ModeOverride) uint64 {
	if override.Delay != nil {
		return *override.Delay
	}
	return mode.Delay
}
