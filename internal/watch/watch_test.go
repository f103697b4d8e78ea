package watch

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/tpmon/internal/actuator"
	"github.com/srg/tpmon/internal/registry"
	"github.com/srg/tpmon/tp357"
)

type staticSource []registry.Room

func (s staticSource) Snapshot() []registry.Room { return s }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testRooms(now time.Time) staticSource {
	current := tp357.Reading{Address: "D1:D7:3F:67:8C:EF", Temperature: 21.5, Humidity: 48}
	return staticSource{
		{
			Name:          "Schlafzimmer",
			SensorAddress: "D1:D7:3F:67:8C:EF",
			Current:       &current,
			Deadline:      now.Add(registry.ReadingTTL - 10*time.Second),
			Actuator: &actuator.Actuator{
				Endpoint: "http://relay.local/relay/2",
				Mode:     actuator.Manual{Level: 3},
			},
		},
		{Name: "Galerie", SensorAddress: "10:76:36:76:66:1E"},
	}
}

func TestRedrawRendersRoomTable(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	now := time.Date(2023, 11, 5, 12, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	r := NewRenderer(testRooms(now), &out)
	r.now = func() time.Time { return now }

	r.redraw()

	frame := out.String()
	assert.True(t, strings.HasPrefix(frame, clearScreen), "each frame repaints the whole screen")
	assert.Contains(t, frame, "ROOM")
	assert.Contains(t, frame, "Schlafzimmer")
	assert.Contains(t, frame, "21.5°C")
	assert.Contains(t, frame, "48%")
	assert.Contains(t, frame, "10s ago")
	assert.Contains(t, frame, "manual 3/6")
	assert.Contains(t, frame, "Galerie")
	assert.Contains(t, frame, "never")
}

func TestTemperatureColorBands(t *testing.T) {
	tests := []struct {
		name    string
		celsius float64
		want    *color.Color
	}{
		{name: "cold", celsius: 10.0, want: color.New(color.FgBlue)},
		{name: "cool", celsius: 18.0, want: color.New(color.FgCyan)},
		{name: "comfortable", celsius: 22.5, want: color.New(color.FgGreen)},
		{name: "band edge", celsius: 26.0, want: color.New(color.FgGreen)},
		{name: "hot", celsius: 28.0, want: color.New(color.FgRed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, temperatureColor(tt.celsius))
		})
	}
}

func TestStaleRoomFallsBackToHistoryAge(t *testing.T) {
	now := time.Date(2023, 11, 5, 12, 0, 0, 0, time.UTC)
	room := registry.Room{
		Name:          "Galerie",
		SensorAddress: "10:76:36:76:66:1E",
		History: []registry.HistoryEntry{
			{Reading: tp357.Reading{Temperature: 17.0, Humidity: 60}, At: now.Add(-time.Hour)},
		},
	}

	assert.Equal(t, "1h0m0s ago", formatAge(room, now))
}

func TestNotifyNeverBlocks(t *testing.T) {
	r := NewRenderer(staticSource{}, &bytes.Buffer{})

	// More signals than the channel holds must not wedge the registry.
	for i := 0; i < 10; i++ {
		r.Notify()
	}
	assert.Len(t, r.signal, 1, "redraw signals are coalesced")
}

func TestRunRedrawsOnNotify(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	out := &syncBuffer{}
	r := NewRenderer(testRooms(time.Now()), out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Notify()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Schlafzimmer")
	}, time.Second, 5*time.Millisecond)
}
