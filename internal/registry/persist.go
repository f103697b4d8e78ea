package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Load builds a registry from the JSON document at path. A missing or
// malformed file silently falls back to the built-in room list; everything
// transient gets repopulated by the sensors at runtime.
func Load(path string, logger *logrus.Logger) *Registry {
	rooms, err := readRooms(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Debug("Using built-in room list")
		return New(DefaultRooms(), logger)
	}
	logger.WithFields(logrus.Fields{
		"path":  path,
		"rooms": len(rooms),
	}).Info("Loaded rooms")
	return New(rooms, logger)
}

func readRooms(path string) ([]*Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rooms []*Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, err
	}

	// Persisted readings come back without a deadline. Grant a fresh one so
	// the sweep retires them normally instead of pinning them forever.
	now := time.Now()
	for _, room := range rooms {
		if room.Current != nil {
			room.Deadline = now.Add(ReadingTTL)
		}
	}
	return rooms, nil
}

// Save writes the room list to path. Deadlines are dropped; history
// timestamps persist as absolute wall-clock times.
func (g *Registry) Save(path string) error {
	rooms := g.Snapshot()

	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rooms: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save rooms: %w", err)
	}
	return nil
}

// AutoSave persists the registry every period until ctx is canceled.
func (g *Registry) AutoSave(ctx context.Context, path string, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Save(path); err != nil {
				g.logger.WithError(err).Error("Autosave failed")
				continue
			}
			g.logger.WithField("path", path).Debug("Rooms saved")
		}
	}
}
