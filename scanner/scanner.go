// Package scanner discovers nearby BLE devices and feeds unclaimed ones to
// the ingest pipeline as connection candidates.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cornelk/hashmap"
	blelib "github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
)

// ErrClassicUnsupported is returned by Run when classic (BR/EDR) discovery is
// requested. The HCI stack used here only scans LE.
var ErrClassicUnsupported = errors.New("BR/EDR discovery is not supported")

// Transport selects which Bluetooth transport discovery listens on.
type Transport int

const (
	TransportAuto Transport = iota
	TransportLE
	TransportClassic
)

func (t Transport) String() string {
	switch t {
	case TransportLE:
		return "le"
	case TransportClassic:
		return "bredr"
	default:
		return "auto"
	}
}

// EventType marks if the device was newly discovered or seen again
type EventType int

const (
	EventNew EventType = iota
	EventUpdated
)

func (t EventType) String() string {
	if t == EventNew {
		return "new"
	}
	return "updated"
}

// Event reports a single device sighting. Events are informational; the
// candidate channel is what drives connections.
type Event struct {
	Type    EventType
	Address string
	Name    string
	RSSI    int
	At      time.Time
}

// Candidate is a discovered device handed to the ingest pump for connection.
// A device is offered at most once until it is released again.
type Candidate struct {
	Address string
	Name    string
	RSSI    int
}

// DeviceInfo is a point-in-time view of a discovered device.
type DeviceInfo struct {
	Address     string    `json:"address"`
	Name        string    `json:"name"`
	RSSI        int       `json:"rssi"`
	Connectable bool      `json:"connectable"`
	LastSeen    time.Time `json:"last_seen"`
}

type deviceRecord struct {
	name        string
	rssi        int
	connectable bool
	lastSeen    time.Time
}

// Options configures discovery behavior
type Options struct {
	// Transport selects LE-only, classic-only or automatic discovery.
	Transport Transport
	// AllowList restricts discovery to these addresses when non-empty.
	AllowList []string
	// WithEvents enables the sighting event channel.
	WithEvents bool
}

const (
	candidateBuffer = 16
	eventBuffer     = 64
)

// Scanner handles BLE device discovery
type Scanner struct {
	dev     blelib.Device
	opts    Options
	logger  *logrus.Logger
	devices *hashmap.Map[string, *deviceRecord]
	claimed *hashmap.Map[string, struct{}]

	candidates chan Candidate
	events     chan Event
}

// New creates a scanner on the given adapter. Addresses in the allow list are
// matched case-insensitively.
func New(dev blelib.Device, opts Options, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	for i, addr := range opts.AllowList {
		opts.AllowList[i] = strings.ToUpper(addr)
	}

	return &Scanner{
		dev:        dev,
		opts:       opts,
		logger:     logger,
		devices:    hashmap.New[string, *deviceRecord](),
		claimed:    hashmap.New[string, struct{}](),
		candidates: make(chan Candidate, candidateBuffer),
		events:     make(chan Event, eventBuffer),
	}
}

// Candidates returns the channel of devices awaiting connection.
func (s *Scanner) Candidates() <-chan Candidate {
	return s.candidates
}

// Events returns the sighting event channel. It carries data only when
// Options.WithEvents is set; the default consumer discards it.
func (s *Scanner) Events() <-chan Event {
	return s.events
}

// Run performs discovery until ctx is canceled. Adapter-level failures,
// including an unsupported transport, are returned to the caller; they are
// not survivable for the ingest subsystem.
func (s *Scanner) Run(ctx context.Context) error {
	if s.opts.Transport == TransportClassic {
		return fmt.Errorf("discovery filter %q: %w", s.opts.Transport, ErrClassicUnsupported)
	}

	s.logger.WithFields(logrus.Fields{
		"transport":  s.opts.Transport.String(),
		"allow_list": s.opts.AllowList,
	}).Info("Starting BLE discovery")

	err := s.dev.Scan(ctx, true, s.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("device_count", s.devices.Len()).Info("BLE discovery stopped")
	return nil
}

// handleAdvertisement updates the device table and offers unclaimed devices
// as candidates.
func (s *Scanner) handleAdvertisement(adv blelib.Advertisement) {
	addr := strings.ToUpper(adv.Addr().String())
	if !s.allowed(addr) {
		return
	}

	name := adv.LocalName()
	prev, seen := s.devices.Get(addr)
	if name == "" && seen {
		name = prev.name
	}

	rec := &deviceRecord{
		name:        name,
		rssi:        adv.RSSI(),
		connectable: adv.Connectable(),
		lastSeen:    time.Now(),
	}
	s.devices.Set(addr, rec)

	if !seen {
		s.logger.WithFields(logrus.Fields{
			"device":  rec.name,
			"address": addr,
			"rssi":    rec.rssi,
		}).Info("Discovered new device")
	}

	if s.opts.WithEvents {
		ev := Event{Type: EventNew, Address: addr, Name: name, RSSI: rec.rssi, At: rec.lastSeen}
		if seen {
			ev.Type = EventUpdated
		}
		s.emitEvent(ev)
	}

	if _, loaded := s.claimed.GetOrInsert(addr, struct{}{}); loaded {
		return
	}
	select {
	case s.candidates <- Candidate{Address: addr, Name: name, RSSI: rec.rssi}:
	default:
		// Queue full. Give the claim back so a later advertisement can
		// offer the device again.
		s.claimed.Del(addr)
		s.logger.WithField("address", addr).Warn("Candidate queue full, device deferred")
	}
}

// Release returns a device to the discovery pool so a later advertisement
// may offer it as a candidate again.
func (s *Scanner) Release(addr string) {
	s.claimed.Del(strings.ToUpper(addr))
}

func (s *Scanner) allowed(addr string) bool {
	if len(s.opts.AllowList) == 0 {
		return true
	}
	for _, a := range s.opts.AllowList {
		if addr == a {
			return true
		}
	}
	return false
}

// emitEvent sends on the event channel, dropping the oldest queued event
// when the buffer is full.
func (s *Scanner) emitEvent(ev Event) {
	select {
	case s.events <- ev:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}

// Snapshot returns a copy of every device seen so far.
func (s *Scanner) Snapshot() []DeviceInfo {
	devs := make([]DeviceInfo, 0, s.devices.Len())
	s.devices.Range(func(addr string, rec *deviceRecord) bool {
		devs = append(devs, DeviceInfo{
			Address:     addr,
			Name:        rec.name,
			RSSI:        rec.rssi,
			Connectable: rec.connectable,
			LastSeen:    rec.lastSeen,
		})
		return true
	})
	return devs
}
