// Package actuator drives remote heating relays. Each configured room maps
// its heating mode onto a duty-cycle command: "stay on for N seconds of the
// next dispatch period".
package actuator

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxLevel is the highest manual power level. A level runs the heater for
// level/MaxLevel of each dispatch period.
const MaxLevel = 6

var (
	// ErrAutoNotImplemented reports a dispatch against the declared but
	// unfinished target-temperature mode.
	ErrAutoNotImplemented = errors.New("automatic temperature control is not implemented")

	// ErrLevelOutOfRange reports a manual power level above MaxLevel.
	ErrLevelOutOfRange = errors.New("manual power level out of range")
)

// Mode selects how a room's heater is driven. Implementations are Manual and
// Auto; dispatch sites switch exhaustively over the two.
type Mode interface {
	isMode()
}

// Manual holds the heater at a fixed power level between 0 and MaxLevel.
type Manual struct {
	Level uint8
}

func (Manual) isMode() {}

// TimerSeconds converts the power level into the on-duration within one
// 3600s dispatch period. Level 0 yields 0 (an explicit "off" command).
func (m Manual) TimerSeconds() int {
	return int(m.Level) * 3600 / MaxLevel
}

// Auto steers toward a target temperature in °C. The mode is declared so
// that persisted configuration can carry it, but dispatching it fails with
// ErrAutoNotImplemented.
type Auto struct {
	Target float64
}

func (Auto) isMode() {}

// Actuator is one room's heating relay: the endpoint commands are sent to
// and the mode deciding what to send.
type Actuator struct {
	Endpoint string
	Mode     Mode
}

// Target pairs a room name with its actuator for one dispatch cycle.
type Target struct {
	Room     string
	Actuator Actuator
}

// modeEnvelope is the persisted form of Mode: exactly one variant key set,
// e.g. {"manual":3} or {"auto":21.5}.
type modeEnvelope struct {
	Manual *uint8   `json:"manual,omitempty"`
	Auto   *float64 `json:"auto,omitempty"`
}

type actuatorEnvelope struct {
	Endpoint string       `json:"endpoint"`
	Mode     modeEnvelope `json:"mode"`
}

func (a Actuator) MarshalJSON() ([]byte, error) {
	env := actuatorEnvelope{Endpoint: a.Endpoint}
	switch m := a.Mode.(type) {
	case Manual:
		level := m.Level
		env.Mode.Manual = &level
	case Auto:
		target := m.Target
		env.Mode.Auto = &target
	default:
		return nil, fmt.Errorf("actuator mode %T cannot be persisted", a.Mode)
	}
	return json.Marshal(env)
}

func (a *Actuator) UnmarshalJSON(data []byte) error {
	var env actuatorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	a.Endpoint = env.Endpoint
	switch {
	case env.Mode.Manual != nil:
		a.Mode = Manual{Level: *env.Mode.Manual}
	case env.Mode.Auto != nil:
		a.Mode = Auto{Target: *env.Mode.Auto}
	default:
		return fmt.Errorf("actuator %s: mode missing or unknown", env.Endpoint)
	}
	return nil
}
