package testutils

import (
	"github.com/go-ble/ble"

	"github.com/srg/tpmon/internal/testutils/mocks"
)

// AdvertisementBuilder assembles mocked BLE advertisements with a fluent API.
// Mock expectations are registered only for fields that were explicitly set,
// so a test that touches an unconfigured field fails loudly instead of
// silently observing a zero value.
type AdvertisementBuilder struct {
	name        string
	address     string
	rssi        int
	connectable bool
	services    []string
	manufData   []byte

	nameSet        bool
	addressSet     bool
	rssiSet        bool
	connectableSet bool
	servicesSet    bool
	manufDataSet   bool
}

// NewAdvertisementBuilder creates an empty advertisement builder.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{}
}

// NewSensorAdvertisement preconfigures a connectable advertisement the way a
// TP357-family sensor announces itself.
func NewSensorAdvertisement(name, address string, rssi int) *AdvertisementBuilder {
	return NewAdvertisementBuilder().
		WithName(name).
		WithAddress(address).
		WithRSSI(rssi).
		WithConnectable(true)
}

// WithName sets the advertised local name.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.name = name
	b.nameSet = true
	return b
}

// WithAddress sets the device address.
func (b *AdvertisementBuilder) WithAddress(address string) *AdvertisementBuilder {
	b.address = address
	b.addressSet = true
	return b
}

// WithRSSI sets the received signal strength.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.rssi = rssi
	b.rssiSet = true
	return b
}

// WithConnectable sets whether the device accepts connections.
func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.connectable = c
	b.connectableSet = true
	return b
}

// WithServices adds advertised service UUIDs, in short ("180F") or full form.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.services = append(b.services, uuids...)
	b.servicesSet = true
	return b
}

// WithManufacturerData sets manufacturer-specific data.
func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.manufData = data
	b.manufDataSet = true
	return b
}

// Build creates a MockAdvertisement with expectations for the configured
// fields only.
func (b *AdvertisementBuilder) Build() *mocks.MockAdvertisement {
	adv := &mocks.MockAdvertisement{}

	if b.addressSet {
		adv.On("Addr").Return(mocks.NewMockAddr(b.address))
	}
	if b.nameSet {
		adv.On("LocalName").Return(b.name)
	}
	if b.rssiSet {
		adv.On("RSSI").Return(b.rssi)
	}
	if b.connectableSet {
		adv.On("Connectable").Return(b.connectable)
	}
	if b.servicesSet {
		var uuids []ble.UUID
		for _, s := range b.services {
			uuids = append(uuids, ble.MustParse(s))
		}
		adv.On("Services").Return(uuids)
	}
	if b.manufDataSet {
		adv.On("ManufacturerData").Return(b.manufData)
	}

	return adv
}
