package testutils

import (
	"sync"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"

	"github.com/srg/tpmon/internal/testutils/mocks"
	"github.com/srg/tpmon/tp357"
)

// vendorServiceUUID is the service the notify characteristic lives under on
// real TP357 hardware.
var vendorServiceUUID = ble.MustParse("00010203-0405-0607-0809-0a0b0c0d1910")

// SensorPeripheralBuilder configures a simulated Bluetooth adapter with a
// single connectable TP357-family sensor behind it.
type SensorPeripheralBuilder struct {
	name           string
	address        string
	advertisements []ble.Advertisement
	failDials      int
	dialErr        error
	profileErr     error
	withoutChar    bool
	failSubscribes int
	subscribeErr   error
}

// NewSensorPeripheral creates a builder for a sensor with the given
// advertised name and address.
func NewSensorPeripheral(name, address string) *SensorPeripheralBuilder {
	return &SensorPeripheralBuilder{name: name, address: address}
}

// WithAdvertisedSensor makes the adapter report the sensor itself during
// scans.
func (b *SensorPeripheralBuilder) WithAdvertisedSensor(rssi int) *SensorPeripheralBuilder {
	adv := NewSensorAdvertisement(b.name, b.address, rssi).Build()
	b.advertisements = append(b.advertisements, adv)
	return b
}

// WithAdvertisements adds extra advertisements replayed during scans, for
// simulating unrelated devices next to the sensor.
func (b *SensorPeripheralBuilder) WithAdvertisements(advs ...ble.Advertisement) *SensorPeripheralBuilder {
	b.advertisements = append(b.advertisements, advs...)
	return b
}

// WithFailingDials makes the first n Dial calls fail with err.
func (b *SensorPeripheralBuilder) WithFailingDials(n int, err error) *SensorPeripheralBuilder {
	b.failDials = n
	b.dialErr = err
	return b
}

// WithProfileError makes service discovery fail with err.
func (b *SensorPeripheralBuilder) WithProfileError(err error) *SensorPeripheralBuilder {
	b.profileErr = err
	return b
}

// WithoutNotifyCharacteristic builds a profile that lacks the measurement
// characteristic, as seen on unrelated devices with a matching name prefix.
func (b *SensorPeripheralBuilder) WithoutNotifyCharacteristic() *SensorPeripheralBuilder {
	b.withoutChar = true
	return b
}

// WithFailingSubscribes makes the first n Subscribe calls fail with err.
func (b *SensorPeripheralBuilder) WithFailingSubscribes(n int, err error) *SensorPeripheralBuilder {
	b.failSubscribes = n
	b.subscribeErr = err
	return b
}

// Build wires the mocked adapter. Scan replays the configured advertisements
// and returns; Dial produces a fresh mocked client per call so connection
// loss and reacquisition can be simulated.
func (b *SensorPeripheralBuilder) Build() *SensorPeripheral {
	p := &SensorPeripheral{
		Address:        b.address,
		Name:           b.name,
		advertisements: b.advertisements,
		failDials:      b.failDials,
		dialErr:        b.dialErr,
		profileErr:     b.profileErr,
		withoutChar:    b.withoutChar,
		failSubscribes: b.failSubscribes,
		subscribeErr:   b.subscribeErr,
	}

	adapter := &mocks.MockDevice{}

	adapter.On("Scan", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(2).(ble.AdvHandler)
			for _, adv := range p.advertisements {
				handler(adv)
			}
		}).
		Return(nil)

	dialCall := adapter.On("Dial", mock.Anything, mock.Anything)
	dialCall.Run(func(args mock.Arguments) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.dials++
		if p.dials <= p.failDials {
			dialCall.ReturnArguments = mock.Arguments{nil, p.dialErr}
			return
		}
		dialCall.ReturnArguments = mock.Arguments{p.newClientLocked(), nil}
	})

	p.Adapter = adapter
	return p
}

// SensorPeripheral is the built simulator. Tests drive it by injecting
// notification payloads and dropping connections.
type SensorPeripheral struct {
	Address string
	Name    string
	Adapter *mocks.MockDevice

	advertisements []ble.Advertisement
	profileErr     error
	withoutChar    bool
	dialErr        error
	subscribeErr   error

	mu             sync.Mutex
	dials          int
	cancels        int
	failDials      int
	failSubscribes int
	handlers       []ble.NotificationHandler
	disconnects    []chan struct{}
}

func (p *SensorPeripheral) newClientLocked() *mocks.MockClient {
	client := &mocks.MockClient{}
	disconnect := make(chan struct{})
	p.disconnects = append(p.disconnects, disconnect)

	if p.profileErr != nil {
		client.On("DiscoverProfile", true).Return(nil, p.profileErr)
	} else {
		client.On("DiscoverProfile", true).Return(p.profile(), nil)
	}

	subCall := client.On("Subscribe", mock.Anything, false, mock.Anything)
	subCall.Run(func(args mock.Arguments) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.failSubscribes > 0 {
			p.failSubscribes--
			subCall.ReturnArguments = mock.Arguments{p.subscribeErr}
			return
		}
		p.handlers = append(p.handlers, args.Get(2).(ble.NotificationHandler))
		subCall.ReturnArguments = mock.Arguments{nil}
	})

	client.On("Disconnected").Return((<-chan struct{})(disconnect))
	client.On("CancelConnection").
		Run(func(mock.Arguments) {
			p.mu.Lock()
			p.cancels++
			p.mu.Unlock()
		}).
		Return(nil)

	return client
}

func (p *SensorPeripheral) profile() *ble.Profile {
	generic := &ble.Service{
		UUID: ble.MustParse("1800"),
		Characteristics: []*ble.Characteristic{
			{UUID: ble.MustParse("2A00"), Property: ble.CharRead},
		},
	}
	if p.withoutChar {
		return &ble.Profile{Services: []*ble.Service{generic}}
	}
	vendor := &ble.Service{
		UUID: vendorServiceUUID,
		Characteristics: []*ble.Characteristic{
			{UUID: tp357.NotifyCharUUID, Property: ble.CharNotify},
		},
	}
	return &ble.Profile{Services: []*ble.Service{generic, vendor}}
}

// Notify delivers a raw payload through the most recent live subscription.
// It is a no-op until a subscription exists.
func (p *SensorPeripheral) Notify(payload []byte) {
	p.mu.Lock()
	var handler ble.NotificationHandler
	if len(p.handlers) > 0 {
		handler = p.handlers[len(p.handlers)-1]
	}
	p.mu.Unlock()

	if handler != nil {
		handler(payload)
	}
}

// DropConnection simulates link loss on the most recently dialed client.
func (p *SensorPeripheral) DropConnection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.disconnects) == 0 {
		return
	}
	ch := p.disconnects[len(p.disconnects)-1]
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// DialCount reports how many times the adapter was dialed.
func (p *SensorPeripheral) DialCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dials
}

// SubscriptionCount reports how many subscriptions were established.
func (p *SensorPeripheral) SubscriptionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// CancelCount reports how many times a client connection was torn down.
func (p *SensorPeripheral) CancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancels
}
