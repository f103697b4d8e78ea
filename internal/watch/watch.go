// Package watch renders a live terminal table of room state.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/srg/tpmon/internal/actuator"
	"github.com/srg/tpmon/internal/registry"
	"github.com/srg/tpmon/tp357"
)

const (
	redrawInterval = time.Second
	clearScreen    = "\033[2J\033[H"
)

// Source is the piece of the registry the renderer reads.
type Source interface {
	Snapshot() []registry.Room
}

// Renderer redraws the room table whenever state changes, at most once per
// tick. It owns the terminal between frames.
type Renderer struct {
	source Source
	out    io.Writer
	signal chan struct{}
	now    func() time.Time
}

func NewRenderer(source Source, out io.Writer) *Renderer {
	return &Renderer{
		source: source,
		out:    out,
		signal: make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Notify is the registry observer hook. Signals are coalesced and never
// block the caller.
func (r *Renderer) Notify() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Run draws frames until ctx is canceled: one immediately, then one per
// state change or tick, whichever comes first.
func (r *Renderer) Run(ctx context.Context) {
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	r.redraw()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.signal:
		case <-ticker.C:
		}
		r.redraw()
	}
}

func (r *Renderer) redraw() {
	rooms := r.source.Snapshot()
	now := r.now()

	var buf bytes.Buffer
	buf.WriteString(clearScreen)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tTEMP\tHUMIDITY\tUPDATED\tHEATING")
	fmt.Fprintln(w, strings.Repeat("-", 64))

	for _, room := range rooms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			room.Name,
			formatTemperature(room.Current),
			formatHumidity(room.Current),
			formatAge(room, now),
			formatActuator(room.Actuator))
	}
	_ = w.Flush()

	_, _ = io.Copy(r.out, &buf)
}

func formatTemperature(reading *tp357.Reading) string {
	if reading == nil {
		return "-"
	}
	return temperatureColor(reading.Temperature).Sprintf("%.1f°C", reading.Temperature)
}

func formatHumidity(reading *tp357.Reading) string {
	if reading == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", reading.Humidity)
}

func temperatureColor(celsius float64) *color.Color {
	switch {
	case celsius < 16:
		return color.New(color.FgBlue)
	case celsius < 21:
		return color.New(color.FgCyan)
	case celsius <= 26:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgRed)
	}
}

// formatAge reports how long ago the room last heard from its sensor. A live
// reading dates from Deadline minus the TTL; a stale room falls back to its
// newest history entry.
func formatAge(room registry.Room, now time.Time) string {
	var last time.Time
	switch {
	case room.Current != nil && !room.Deadline.IsZero():
		last = room.Deadline.Add(-registry.ReadingTTL)
	case len(room.History) > 0:
		last = room.History[len(room.History)-1].At
	default:
		return "never"
	}
	return fmt.Sprintf("%s ago", now.Sub(last).Truncate(time.Second))
}

func formatActuator(a *actuator.Actuator) string {
	if a == nil {
		return "-"
	}
	switch mode := a.Mode.(type) {
	case actuator.Manual:
		return fmt.Sprintf("manual %d/%d", mode.Level, actuator.MaxLevel)
	case actuator.Auto:
		return fmt.Sprintf("auto %.1f°C", mode.Target)
	default:
		return "-"
	}
}
