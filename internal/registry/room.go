// Package registry holds the shared room state: current readings, liveness
// deadlines, bounded history, and heating configuration. A single consumer
// merges incoming readings; dispatch and rendering work from snapshots.
package registry

import (
	"time"

	"github.com/srg/tpmon/internal/actuator"
	"github.com/srg/tpmon/tp357"
)

const (
	// ReadingTTL is how long a merged reading counts as current.
	ReadingTTL = 300 * time.Second

	// HistoryRetention bounds how far back a room's history reaches.
	HistoryRetention = 24 * time.Hour
)

// HistoryEntry is one merged reading with its arrival time. Entries are
// appended in arrival order and never modified.
type HistoryEntry struct {
	Reading tp357.Reading `json:"reading"`
	At      time.Time     `json:"timestamp"`
}

// Room tracks one physical location. SensorAddress keys merges and may be
// empty for rooms that have no sensor assigned yet.
type Room struct {
	Name          string             `json:"name"`
	SensorAddress string             `json:"sensor_address"`
	Current       *tp357.Reading     `json:"current_reading,omitempty"`
	History       []HistoryEntry     `json:"history"`
	Actuator      *actuator.Actuator `json:"actuator,omitempty"`

	// Deadline is transient liveness state, rebuilt on load.
	Deadline time.Time `json:"-"`
}

// clone returns a copy sharing no mutable state with the original.
func (r *Room) clone() Room {
	c := *r
	if r.Current != nil {
		reading := *r.Current
		c.Current = &reading
	}
	c.History = append([]HistoryEntry(nil), r.History...)
	if r.Actuator != nil {
		a := *r.Actuator
		c.Actuator = &a
	}
	return c
}
