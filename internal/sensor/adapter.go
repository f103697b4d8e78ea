// Package sensor connects discovered TP357 devices and streams their
// measurements into the room registry.
package sensor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

// AdapterFactory creates the HCI device backing discovery and connections
// (can be overridden in tests)
var AdapterFactory = func(id int) (ble.Device, error) {
	return linux.NewDevice(ble.OptDeviceID(id))
}

// NewAdapter opens the Bluetooth adapter with the given logical name
// ("hci0", "hci1", ...).
func NewAdapter(name string) (ble.Device, error) {
	id, err := parseAdapterID(name)
	if err != nil {
		return nil, err
	}
	dev, err := AdapterFactory(id)
	if err != nil {
		return nil, fmt.Errorf("open adapter %s: %w", name, err)
	}
	return dev, nil
}

func parseAdapterID(name string) (int, error) {
	suffix := strings.TrimPrefix(name, "hci")
	if suffix == name || suffix == "" {
		return 0, fmt.Errorf("invalid adapter name %q, expected hci<N>", name)
	}
	id, err := strconv.Atoi(suffix)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid adapter name %q, expected hci<N>", name)
	}
	return id, nil
}
