package models

// TimerTrigger is the LED trigger that blinks using delay_on/delay_off.
const TimerTrigger = "timer"

// Reading is a station signal in dBm as reported by the driver (usually negative).
type Reading int

// Snapshot maps a normalized station MAC address to its current reading.
// It lives for a single cycle.
type Snapshot map[string]Reading

// Lookup returns the reading for address, or nil if the station is not associated.
func (s Snapshot) Lookup(address string) *Reading {
	r, ok := s[address]
	if !ok {
		return nil
	}
	return &r
}

// State is the classification of a client for one cycle.
type State string

const (
	StateNoSignal  State = "no_signal"
	StateLowSignal State = "low_signal"
	StateSignal    State = "signal"
)

// EvaluationResult is the resolved indicator state for one client in one cycle.
type EvaluationResult struct {
	Client     string   `json:"client"`      // config section name
	Address    string   `json:"address"`     // station MAC
	LED        string   `json:"led"`         // LED name under the leds class dir
	State      State    `json:"state"`
	Reading    *Reading `json:"reading,omitempty"`
	Normalized uint64   `json:"normalized"`  // 100 + reading, clamped at 0
	Trigger    string   `json:"trigger"`
	DelayOn    uint64   `json:"delay_on,omitempty"`
	DelayOff   uint64   `json:"delay_off,omitempty"`
	Timestamp  int64    `json:"timestamp"`
}

// IsTimer reports whether the result carries delay_on/delay_off values.
func (r EvaluationResult) IsTimer() bool {
	return r.Trigger == TimerTrigger
}
