package led

import (
	"errors"
	"fmt"

	"iwled/internal/models"

	"go.uber.org/zap"
)

// ErrWriteFailed is wrapped by every WriteError.
var ErrWriteFailed = errors.New("led write failed")

// WriteError reports which attribute could not be written.
type WriteError struct {
	LED       string
	Attribute string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s/%s: %v", ErrWriteFailed, e.LED, e.Attribute, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWriteFailed, e.Err}
}

// Indicator is the write side of an LED device.
type Indicator interface {
	Name() string
	WriteTrigger(name string) error
	WriteDelayOn(ms uint64) error
	WriteDelayOff(ms uint64) error
}

// Actuator applies evaluation results to LEDs.
type Actuator struct {
	logger *zap.Logger
}

func NewActuator(logger *zap.Logger) *Actuator {
	return &Actuator{logger: logger}
}

// Apply writes the trigger every time, and delay_on then delay_off only for
// the timer trigger. Nothing is diffed against the previous cycle.
func (a *Actuator) Apply(ind Indicator, result models.EvaluationResult) error {
	if err := ind.WriteTrigger(result.Trigger); err != nil {
		return &WriteError{LED: ind.Name(), Attribute: attrTrigger, Err: err}
	}

	if result.IsTimer() {
		if err := ind.WriteDelayOn(result.DelayOn); err != nil {
			return &WriteError{LED: ind.Name(), Attribute: attrDelayOn, Err: err}
		}
		if err := ind.WriteDelayOff(result.DelayOff); err != nil {
			return &WriteError{LED: ind.Name(), Attribute: attrDelayOff, Err: err}
		}
	}

	a.logger.Debug("LED updated",
		zap.String("led", ind.Name()),
		zap.String("trigger", result.Trigger),
		zap.Uint64("delay_on", result.DelayOn),
		zap.Uint64("delay_off", result.DelayOff),
	)

	return nil
}
