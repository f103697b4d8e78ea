// Package statusweb serves the room table and Prometheus metrics over HTTP.
package statusweb

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/srg/tpmon/internal/actuator"
	"github.com/srg/tpmon/internal/registry"
)

const shutdownTimeout = 5 * time.Second

// Source is the piece of the registry the status page reads.
type Source interface {
	Snapshot() []registry.Room
}

// Server renders room state at / and Prometheus metrics at /metrics.
type Server struct {
	source Source
	logger *logrus.Logger
	now    func() time.Time
}

func NewServer(source Source, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// Handler returns the route table, usable standalone in tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run serves addr until ctx is canceled, then drains connections. A clean
// shutdown reports nil.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	s.logger.WithField("addr", addr).Info("Status page listening")

	select {
	case err := <-errs:
		return fmt.Errorf("status page: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status page shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status page: %w", err)
	}
	return nil
}

type roomView struct {
	Name        string
	Temperature string
	Humidity    string
	Updated     string
	Heating     string
}

type page struct {
	Rooms       []roomView
	GeneratedAt string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	now := s.now()
	rooms := s.source.Snapshot()

	view := page{GeneratedAt: now.Format(time.RFC1123)}
	for _, room := range rooms {
		view.Rooms = append(view.Rooms, roomView{
			Name:        room.Name,
			Temperature: formatTemperature(room),
			Humidity:    formatHumidity(room),
			Updated:     formatUpdated(room, now),
			Heating:     formatHeating(room.Actuator),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		s.logger.WithError(err).Error("Status page render failed")
	}
}

func formatTemperature(room registry.Room) string {
	if room.Current == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f°C", room.Current.Temperature)
}

func formatHumidity(room registry.Room) string {
	if room.Current == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", room.Current.Humidity)
}

func formatUpdated(room registry.Room, now time.Time) string {
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

func formatHeating(a *actuator.Actuator) string {
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

var pageTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<title>tpmon</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 12px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>Rooms</h1>
<table>
<tr><th>Room</th><th>Temperature</th><th>Humidity</th><th>Updated</th><th>Heating</th></tr>
{{range .Rooms}}<tr><td>{{.Name}}</td><td>{{.Temperature}}</td><td>{{.Humidity}}</td><td>{{.Updated}}</td><td>{{.Heating}}</td></tr>
{{end}}</table>
<p>generated {{.GeneratedAt}} · <a href="/metrics">metrics</a></p>
</body>
</html>
`))
