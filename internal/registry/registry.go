package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/tpmon/internal/actuator"
	"github.com/srg/tpmon/tp357"
)

// Registry is the shared aggregate of rooms, guarded by one exclusive lock.
// Critical sections stay O(number of rooms) and perform no I/O; callers that
// need to block work from a Snapshot.
type Registry struct {
	logger *logrus.Logger
	now    func() time.Time

	mu       sync.Mutex
	rooms    []*Room
	observer func()
}

// New builds a registry over rooms, taking ownership of the slice. Sensor
// addresses are normalized to upper case so merges match regardless of how
// the source spelled them.
func New(rooms []*Room, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	for _, room := range rooms {
		room.SensorAddress = strings.ToUpper(room.SensorAddress)
		if room.History == nil {
			room.History = []HistoryEntry{}
		}
	}
	roomCount.Set(float64(len(rooms)))
	return &Registry{
		logger: logger,
		now:    time.Now,
		rooms:  rooms,
	}
}

// SetObserver registers a redraw signal invoked after every processed
// reading. It runs outside the lock and must not block.
func (g *Registry) SetObserver(fn func()) {
	g.mu.Lock()
	g.observer = fn
	g.mu.Unlock()
}

// Run merges readings until ctx is canceled.
func (g *Registry) Run(ctx context.Context, readings <-chan tp357.Reading) {
	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-readings:
			g.Merge(reading)
		}
	}
}

// Merge folds one reading into its room, creating an ad-hoc room for an
// unknown address, then sweeps expired readings and signals the observer.
func (g *Registry) Merge(reading tp357.Reading) {
	now := g.now()
	reading.Address = strings.ToUpper(reading.Address)

	g.mu.Lock()
	name := g.mergeLocked(reading, now)
	g.sweepLocked(now)
	observer := g.observer
	rooms := len(g.rooms)
	g.mu.Unlock()

	readingsTotal.Inc()
	roomCount.Set(float64(rooms))
	roomTemperature.WithLabelValues(name, reading.Address).Set(reading.Temperature)
	roomHumidity.WithLabelValues(name, reading.Address).Set(float64(reading.Humidity))
	lastReading.WithLabelValues(name, reading.Address).Set(float64(now.Unix()))

	if observer != nil {
		observer()
	}
}

// mergeLocked returns the name of the room the reading landed in.
func (g *Registry) mergeLocked(reading tp357.Reading, now time.Time) string {
	for _, room := range g.rooms {
		if room.SensorAddress == "" || room.SensorAddress != reading.Address {
			continue
		}

		current := reading
		room.Current = &current
		room.History = append(room.History, HistoryEntry{Reading: reading, At: now})

		cutoff := now.Add(-HistoryRetention)
		for len(room.History) > 0 && room.History[0].At.Before(cutoff) {
			room.History = room.History[1:]
		}

		room.Deadline = now.Add(ReadingTTL)
		return room.Name
	}

	// Unknown sensor: track it under its own address until the operator
	// assigns it a room.
	current := reading
	g.rooms = append(g.rooms, &Room{
		Name:          reading.Address,
		SensorAddress: reading.Address,
		Current:       &current,
		History:       []HistoryEntry{},
		Deadline:      now.Add(ReadingTTL),
	})
	g.logger.WithField("address", reading.Address).Info("Tracking sensor with no room assignment")
	return reading.Address
}

// Sweep clears readings whose liveness deadline has passed, leaving history
// untouched. Merge sweeps automatically; this is for callers holding their
// own notion of now.
func (g *Registry) Sweep(now time.Time) {
	g.mu.Lock()
	g.sweepLocked(now)
	g.mu.Unlock()
}

func (g *Registry) sweepLocked(now time.Time) {
	for _, room := range g.rooms {
		if room.Deadline.IsZero() || !now.After(room.Deadline) {
			continue
		}
		room.Current = nil
		room.Deadline = time.Time{}
	}
}

// Snapshot returns a deep copy of all rooms in registration order.
func (g *Registry) Snapshot() []Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	rooms := make([]Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room.clone())
	}
	return rooms
}

// ActuatorTargets returns the dispatch list for all rooms with heating
// configured. The returned values are copies; no lock is held by the caller.
func (g *Registry) ActuatorTargets() []actuator.Target {
	g.mu.Lock()
	defer g.mu.Unlock()

	var targets []actuator.Target
	for _, room := range g.rooms {
		if room.Actuator == nil {
			continue
		}
		targets = append(targets, actuator.Target{Room: room.Name, Actuator: *room.Actuator})
	}
	return targets
}
