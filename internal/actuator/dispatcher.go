package actuator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher periodically sends every configured actuator its duty-cycle
// command. A cycle runs immediately at startup and then once per period.
type Dispatcher struct {
	targets func() []Target
	client  *Client
	period  time.Duration
	logger  *logrus.Logger
}

// NewDispatcher creates a dispatcher. targets is called at the start of each
// cycle and must not block; it is expected to read a registry snapshot, so
// no lock is held while requests are in flight.
func NewDispatcher(targets func() []Target, client *Client, period time.Duration, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		targets: targets,
		client:  client,
		period:  period,
		logger:  logger,
	}
}

// Run dispatches until ctx is canceled. Failures of individual requests are
// logged and never stop the cycle or shift the schedule.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.WithField("period", d.period).Info("Starting actuator dispatch loop")

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		d.Dispatch(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Dispatch runs one full cycle over the current targets.
func (d *Dispatcher) Dispatch(ctx context.Context) {
	for _, target := range d.targets() {
		log := d.logger.WithFields(logrus.Fields{
			"room":     target.Room,
			"endpoint": target.Actuator.Endpoint,
		})

		if err := d.send(ctx, log, target); err != nil {
			dispatchRequests.WithLabelValues("error").Inc()
			log.WithError(err).Error("Actuator command failed")
			continue
		}
		dispatchRequests.WithLabelValues("ok").Inc()
	}
}

func (d *Dispatcher) send(ctx context.Context, log *logrus.Entry, target Target) error {
	switch mode := target.Actuator.Mode.(type) {
	case Manual:
		if mode.Level > MaxLevel {
			return fmt.Errorf("level %d: %w", mode.Level, ErrLevelOutOfRange)
		}
		timer := mode.TimerSeconds()
		log.WithFields(logrus.Fields{
			"level": mode.Level,
			"timer": timer,
		}).Info("Commanding heater")
		return d.client.TurnOn(ctx, target.Actuator.Endpoint, timer)
	case Auto:
		return fmt.Errorf("target %.1f°C: %w", mode.Target, ErrAutoNotImplemented)
	default:
		return fmt.Errorf("actuator mode %T not supported", target.Actuator.Mode)
	}
}
