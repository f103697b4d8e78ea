package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/tpmon/internal/actuator"
	"github.com/srg/tpmon/internal/groutine"
	"github.com/srg/tpmon/internal/registry"
	"github.com/srg/tpmon/internal/sensor"
	"github.com/srg/tpmon/internal/statusweb"
	"github.com/srg/tpmon/internal/watch"
	"github.com/srg/tpmon/pkg/config"
	"github.com/srg/tpmon/scanner"
	"github.com/srg/tpmon/tp357"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [addresses...]",
	Short: "Watch sensors and drive room heating",
	Long: `Continuously discover TP357 sensors, merge their readings into the
room registry, and command configured heating relays once per dispatch
period.

Positional addresses restrict discovery to an allow-list; with none
given, every advertising device is considered.`,
	RunE: runMonitor,
}

var (
	monitorConfigPath string
	monitorAdapter    string
	monitorStatePath  string
	monitorListen     string
	monitorWatch      bool
	monitorLE         bool
	monitorBREDR      bool
	monitorChanges    bool
)

func init() {
	monitorCmd.Flags().StringVarP(&monitorConfigPath, "config", "c", "", "Path to YAML configuration")
	monitorCmd.Flags().StringVar(&monitorAdapter, "adapter", "", "Bluetooth adapter (hci<N>)")
	monitorCmd.Flags().StringVar(&monitorStatePath, "state", "", "Room state file")
	monitorCmd.Flags().StringVar(&monitorListen, "listen", "", "Status page address")
	monitorCmd.Flags().BoolVarP(&monitorWatch, "watch", "w", false, "Render a live room table on the terminal")
	monitorCmd.Flags().BoolVar(&monitorLE, "le", false, "Discover LE devices only")
	monitorCmd.Flags().BoolVar(&monitorBREDR, "bredr", false, "Discover classic (BR/EDR) devices only")
	monitorCmd.Flags().BoolVar(&monitorChanges, "changes", false, "Log device change events")
}

func transportFromFlags(le, bredr bool) (scanner.Transport, error) {
	switch {
	case le && bredr:
		return scanner.TransportAuto, usageErrorf("--le and --bredr are mutually exclusive")
	case le:
		return scanner.TransportLE, nil
	case bredr:
		return scanner.TransportClassic, nil
	default:
		return scanner.TransportAuto, nil
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(monitorConfigPath)
	if err != nil {
		return &usageError{err: err}
	}
	if monitorAdapter != "" {
		cfg.Adapter = monitorAdapter
	}
	if monitorStatePath != "" {
		cfg.StatePath = monitorStatePath
	}
	if monitorListen != "" {
		cfg.Listen = monitorListen
	}

	transport, err := transportFromFlags(monitorLE, monitorBREDR)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger()
	level, levelSet, err := flagLogLevel(cmd)
	if err != nil {
		return err
	}
	if levelSet {
		logger.SetLevel(level)
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return monitor(ctx, cfg, logger, monitorOptions{
		transport:   transport,
		allowList:   args,
		watchTable:  monitorWatch,
		withChanges: monitorChanges,
	})
}

type monitorOptions struct {
	transport   scanner.Transport
	allowList   []string
	watchTable  bool
	withChanges bool
}

// monitor wires the pipeline and blocks until shutdown or a fatal error.
func monitor(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts monitorOptions) error {
	reg := registry.Load(cfg.StatePath, logger)

	dev, err := sensor.NewAdapter(cfg.Adapter)
	if err != nil {
		return err
	}

	sc := scanner.New(dev, scanner.Options{
		Transport:  opts.transport,
		AllowList:  opts.allowList,
		WithEvents: opts.withChanges,
	}, logger)

	readings := make(chan tp357.Reading, 10)
	connector := sensor.NewConnector(dev, cfg.ConnectTimeout(), logger)
	pump := sensor.NewPump(sc, connector, readings, logger)
	dispatcher := actuator.NewDispatcher(reg.ActuatorTargets, actuator.NewClient(0), cfg.DispatchPeriod(), logger)
	web := statusweb.NewServer(reg, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Only adapter-level discovery failures and an unusable status page
	// endpoint end the process; everything else recovers in place.
	fatal := make(chan error, 1)
	fail := func(err error) {
		select {
		case fatal <- err:
		default:
		}
	}

	groutine.Go(runCtx, "registry-merge", func(ctx context.Context) {
		reg.Run(ctx, readings)
	})
	groutine.Go(runCtx, "sensor-pump", func(ctx context.Context) {
		pump.Run(ctx)
	})
	groutine.Go(runCtx, "actuator-dispatch", func(ctx context.Context) {
		dispatcher.Run(ctx)
	})
	groutine.Go(runCtx, "registry-autosave", func(ctx context.Context) {
		reg.AutoSave(ctx, cfg.StatePath, cfg.AutosavePeriod())
	})

	groutine.Go(runCtx, "ble-discovery", func(ctx context.Context) {
		if err := sc.Run(ctx); err != nil {
			fail(err)
		}
	})
	groutine.Go(runCtx, "status-page", func(ctx context.Context) {
		if err := web.Run(ctx, cfg.Listen); err != nil {
			fail(err)
		}
	})

	if opts.withChanges {
		groutine.Go(runCtx, "event-drain", func(ctx context.Context) {
			drainEvents(ctx, sc.Events(), logger)
		})
	}
	if opts.watchTable {
		renderer := watch.NewRenderer(reg, os.Stdout)
		reg.SetObserver(renderer.Notify)
		groutine.Go(runCtx, "watch-renderer", func(ctx context.Context) {
			renderer.Run(ctx)
		})
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-fatal:
		logger.WithError(runErr).Error("Fatal error, shutting down")
	}
	cancel()

	if err := reg.Save(cfg.StatePath); err != nil {
		logger.WithError(err).Error("Final state save failed")
	}
	return runErr
}

// drainEvents consumes device change events. They are surfaced for
// debugging but not routed into the pipeline.
func drainEvents(ctx context.Context, events <-chan scanner.Event, logger *logrus.Logger) {
	defer logger.Debugf("%s: exiting", groutine.GetName(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			logger.WithFields(logrus.Fields{
				"address": ev.Address,
				"name":    ev.Name,
				"type":    ev.Type.String(),
			}).Debug("Device change event")
		}
	}
}
