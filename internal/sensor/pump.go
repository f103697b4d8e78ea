package sensor

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/srg/tpmon/internal/groutine"
	"github.com/srg/tpmon/scanner"
	"github.com/srg/tpmon/tp357"
)

// CandidateSource is the discovery side the pump consumes. *scanner.Scanner
// satisfies it.
type CandidateSource interface {
	Candidates() <-chan scanner.Candidate
	Release(addr string)
}

// Pump turns discovery candidates into live sensor streams. Candidates are
// handled one at a time: a slow connect delays later candidates instead of
// racing the adapter with parallel dials.
type Pump struct {
	source    CandidateSource
	connector *Connector
	readings  chan<- tp357.Reading
	logger    *logrus.Logger
}

// NewPump creates a pump feeding decoded readings into readings.
func NewPump(source CandidateSource, connector *Connector, readings chan<- tp357.Reading, logger *logrus.Logger) *Pump {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pump{
		source:    source,
		connector: connector,
		readings:  readings,
		logger:    logger,
	}
}

// Run consumes candidates until ctx is canceled.
func (p *Pump) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cand := <-p.source.Candidates():
			p.handle(ctx, cand)
		}
	}
}

func (p *Pump) handle(ctx context.Context, cand scanner.Candidate) {
	log := p.logger.WithFields(logrus.Fields{
		"address": cand.Address,
		"name":    cand.Name,
	})

	if !tp357.MatchName(cand.Name) {
		// Not a sensor. The device stays claimed so its advertisements
		// are not re-examined on every sighting.
		log.Debug("Ignoring non-sensor device")
		return
	}

	log.WithField("rssi", cand.RSSI).Info("Sensor found, connecting")

	client, err := p.connector.Connect(ctx, cand.Address)
	if err != nil {
		log.WithError(err).Error("Sensor connect failed, will retry on a later advertisement")
		p.source.Release(cand.Address)
		return
	}

	char, err := p.connector.Resolve(client)
	if err != nil {
		if errors.Is(err, ErrCharacteristicNotFound) {
			log.WithError(err).Warn("Device looks like a sensor but exposes no measurement characteristic")
		} else {
			log.WithError(err).Error("Service discovery failed, will retry on a later advertisement")
		}
		_ = client.CancelConnection()
		p.source.Release(cand.Address)
		return
	}

	reader := NewReader(cand.Address, client, char, p.connector, p.readings, p.logger)
	groutine.Go(ctx, "sensor-stream-"+cand.Address, func(ctx context.Context) {
		reader.Run(ctx)
	})
}
