package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/tpmon/tp357"
)

// connectAttempts is the total number of dials per connection request.
const connectAttempts = 3

// ErrCharacteristicNotFound reports a device that connected fine but does
// not expose the measurement characteristic. It is an expected outcome for
// lookalike devices, not a transport failure.
var ErrCharacteristicNotFound = errors.New("measurement characteristic not found")

// Connector dials sensors and resolves their measurement characteristic.
type Connector struct {
	dev     ble.Device
	timeout time.Duration
	logger  *logrus.Logger
}

// NewConnector creates a connector on the given adapter. timeout bounds each
// individual dial attempt.
func NewConnector(dev ble.Device, timeout time.Duration, logger *logrus.Logger) *Connector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Connector{
		dev:     dev,
		timeout: timeout,
		logger:  logger,
	}
}

// Connect dials the device at address, retrying failed attempts up to three
// times in total.
func (c *Connector) Connect(ctx context.Context, address string) (ble.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		connCtx, cancel := context.WithTimeout(ctx, c.timeout)
		client, err := c.dev.Dial(connCtx, ble.NewAddr(address))
		cancel()
		if err == nil {
			return client, nil
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"address": address,
			"attempt": attempt,
		}).WithError(err).Warn("Connect attempt failed")
	}
	return nil, fmt.Errorf("connect to %s after %d attempts: %w", address, connectAttempts, lastErr)
}

// Resolve enumerates the connected device's services and returns the first
// characteristic carrying measurement notifications. A device without one
// yields ErrCharacteristicNotFound.
func (c *Connector) Resolve(client ble.Client) (*ble.Characteristic, error) {
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		return nil, fmt.Errorf("discover profile: %w", err)
	}

	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			if char.UUID.Equal(tp357.NotifyCharUUID) {
				return char, nil
			}
		}
	}
	return nil, ErrCharacteristicNotFound
}
