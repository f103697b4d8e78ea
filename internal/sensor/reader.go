package sensor

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/tpmon/tp357"
)

// Reader owns one live sensor connection and pumps decoded readings into the
// shared channel. One Reader runs per connected sensor.
type Reader struct {
	address   string
	connector *Connector
	client    ble.Client
	char      *ble.Characteristic
	readings  chan<- tp357.Reading
	logger    *logrus.Logger

	runCtx context.Context
}

// NewReader wraps an established connection. client and char come from a
// successful Connect/Resolve pair for address.
func NewReader(address string, client ble.Client, char *ble.Characteristic, connector *Connector, readings chan<- tp357.Reading, logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reader{
		address:   address,
		connector: connector,
		client:    client,
		char:      char,
		readings:  readings,
		logger:    logger,
	}
}

// Run streams notifications until ctx is canceled. Stream faults are the
// normal operating condition for battery devices at the edge of radio range:
// the reader reconnects and resubscribes indefinitely, without backoff, and
// never gives a sensor up on its own.
func (r *Reader) Run(ctx context.Context) {
	r.runCtx = ctx

	for {
		if err := r.client.Subscribe(r.char, false, r.handleNotification); err != nil {
			r.logger.WithField("address", r.address).WithError(err).Warn("Subscribe failed, reacquiring")
			_ = r.client.CancelConnection()
			if !r.reacquire(ctx) {
				return
			}
			continue
		}

		r.logger.WithField("address", r.address).Info("Streaming sensor measurements")

		select {
		case <-ctx.Done():
			_ = r.client.CancelConnection()
			return
		case <-r.client.Disconnected():
			r.logger.WithField("address", r.address).Warn("Sensor connection lost, reacquiring")
		}

		if !r.reacquire(ctx) {
			return
		}
	}
}

// reacquire re-dials and re-resolves until it succeeds or the process shuts
// down. Each dial attempt is already bounded by the connector timeout, which
// is the only pacing applied.
func (r *Reader) reacquire(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}

		client, err := r.connector.Connect(ctx, r.address)
		if err != nil {
			r.logger.WithField("address", r.address).WithError(err).Warn("Reconnect failed, retrying")
			continue
		}

		char, err := r.connector.Resolve(client)
		if err != nil {
			r.logger.WithField("address", r.address).WithError(err).Warn("Characteristic lookup failed, retrying")
			_ = client.CancelConnection()
			continue
		}

		r.client = client
		r.char = char
		return true
	}
}

// handleNotification decodes one payload and forwards it. Malformed payloads
// are dropped without logging; sensors emit framing noise routinely.
func (r *Reader) handleNotification(payload []byte) {
	reading, ok := tp357.Decode(r.address, payload)
	if !ok {
		readingsDropped.Inc()
		return
	}

	select {
	case r.readings <- reading:
	case <-r.runCtx.Done():
		// Consumer is shutting down; the reading is lost, which is fine
		// during teardown.
	}
}
