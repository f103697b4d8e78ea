package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/tpmon/internal/sensor"
	"github.com/srg/tpmon/scanner"
	"github.com/srg/tpmon/tp357"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [addresses...]",
	Short: "Scan for TP357 sensors",
	Long: `Scan for ThermoPro TP357 sensors and display what was found.

Only devices advertising the TP357 name prefix are listed unless --all
is given. Positional addresses restrict the scan to an allow-list.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanAdapter  string
	scanAll      bool
	scanWatch    bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().StringVar(&scanAdapter, "adapter", "hci1", "Bluetooth adapter (hci<N>)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "List every device, not just TP357 sensors")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Continuously scan and update results")
}

func runScan(cmd *cobra.Command, args []string) error {
	validFormats := []string{"table", "json"}
	isValidFormat := false
	for _, format := range validFormats {
		if scanFormat == format {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return usageErrorf("invalid format '%s': must be one of %v", scanFormat, validFormats)
	}

	logger, err := configureLogger(cmd, logrus.WarnLevel)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	dev, err := sensor.NewAdapter(scanAdapter)
	if err != nil {
		return err
	}
	sc := scanner.New(dev, scanner.Options{AllowList: args}, logger)

	if scanWatch {
		return runScanWatch(sc)
	}
	return runScanOnce(sc)
}

func runScanOnce(sc *scanner.Scanner) error {
	baseCtx := context.Background()
	if scanDuration > 0 {
		var cancel context.CancelFunc
		baseCtx, cancel = context.WithTimeout(baseCtx, scanDuration)
		defer cancel()
	}

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	// Listen for Ctrl+C to cancel
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nCtrl+C pressed, cancelling scan...")
		cancel()
	}()

	go discardCandidates(ctx, sc)

	if err := sc.Run(ctx); err != nil {
		return err
	}
	return displayDevices(os.Stdout, sc.Snapshot(), scanFormat, scanAll)
}

func runScanWatch(sc *scanner.Scanner) error {
	// Scan until interrupted by the user.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nCtrl+C pressed, cancelling scan...")
		cancel()
	}()

	go discardCandidates(ctx, sc)

	scanErrCh := make(chan error, 1)
	go func() {
		scanErrCh <- sc.Run(ctx)
	}()

	redraw := func() error {
		clearScreen()
		return displayDevices(os.Stdout, sc.Snapshot(), scanFormat, scanAll)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return redraw()
		case err := <-scanErrCh:
			if err != nil {
				return err
			}
			// Scan completed normally - keep showing the final table
			// until the user interrupts.
		case <-ticker.C:
			_ = redraw()
		}
	}
}

// discardCandidates drains the connection queue. The scan command only
// observes devices, it never claims them.
func discardCandidates(ctx context.Context, sc *scanner.Scanner) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sc.Candidates():
		}
	}
}

func displayDevices(out io.Writer, devices []scanner.DeviceInfo, format string, all bool) error {
	filtered := make([]scanner.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if all || tp357.MatchName(d.Name) {
			filtered = append(filtered, d)
		}
	}
	if len(filtered) == 0 {
		_, err := fmt.Fprintln(out, "No devices discovered")
		return err
	}

	// Sort by signal strength, strongest first
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].RSSI > filtered[j].RSSI
	})

	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(filtered)
	}
	return displayDeviceTable(out, filtered)
}

func displayDeviceTable(out io.Writer, devices []scanner.DeviceInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tLAST SEEN")
	fmt.Fprintln(w, strings.Repeat("-", 64))

	for _, d := range devices {
		name := d.Name
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		lastSeen := time.Since(d.LastSeen).Truncate(time.Second)
		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%s ago\n", name, d.Address, d.RSSI, lastSeen)
	}

	return w.Flush()
}

func clearScreen() {
	var w io.Writer = os.Stdout
	if w == nil {
		w = io.Discard
	}
	fmt.Fprint(w, "\033[2J\033[H")
}
