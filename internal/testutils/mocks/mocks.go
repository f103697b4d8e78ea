// Package mocks provides testify mocks for the go-ble interfaces used
// throughout the test suites.
package mocks

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// MockAddr implements ble.Addr.
type MockAddr struct {
	mock.Mock
}

func (m *MockAddr) String() string {
	args := m.Called()
	return args.String(0)
}

// NewMockAddr returns a MockAddr that always reports the given address.
func NewMockAddr(address string) *MockAddr {
	addr := &MockAddr{}
	addr.On("String").Return(address)
	return addr
}

// MockAdvertisement implements ble.Advertisement.
type MockAdvertisement struct {
	mock.Mock
}

func (m *MockAdvertisement) LocalName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAdvertisement) ManufacturerData() []byte {
	args := m.Called()
	if d := args.Get(0); d != nil {
		return d.([]byte)
	}
	return nil
}

func (m *MockAdvertisement) ServiceData() []ble.ServiceData {
	args := m.Called()
	if d := args.Get(0); d != nil {
		return d.([]ble.ServiceData)
	}
	return nil
}

func (m *MockAdvertisement) Services() []ble.UUID {
	args := m.Called()
	if d := args.Get(0); d != nil {
		return d.([]ble.UUID)
	}
	return nil
}

func (m *MockAdvertisement) OverflowService() []ble.UUID {
	args := m.Called()
	if d := args.Get(0); d != nil {
		return d.([]ble.UUID)
	}
	return nil
}

func (m *MockAdvertisement) TxPowerLevel() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockAdvertisement) Connectable() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAdvertisement) SolicitedService() []ble.UUID {
	args := m.Called()
	if d := args.Get(0); d != nil {
		return d.([]ble.UUID)
	}
	return nil
}

func (m *MockAdvertisement) RSSI() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockAdvertisement) Addr() ble.Addr {
	args := m.Called()
	return args.Get(0).(ble.Addr)
}

// MockDevice implements ble.Device. Only Scan and Dial are exercised by the
// monitor; the GATT server methods exist to satisfy the interface.
type MockDevice struct {
	mock.Mock
}

func (m *MockDevice) AddService(svc *ble.Service) error {
	args := m.Called(svc)
	return args.Error(0)
}

func (m *MockDevice) RemoveAllServices() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDevice) SetServices(svcs []*ble.Service) error {
	args := m.Called(svcs)
	return args.Error(0)
}

func (m *MockDevice) Stop() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDevice) Advertise(ctx context.Context, adv ble.Advertisement) error {
	args := m.Called(ctx, adv)
	return args.Error(0)
}

func (m *MockDevice) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	args := m.Called(ctx, name, uuids)
	return args.Error(0)
}

func (m *MockDevice) AdvertiseMfgData(ctx context.Context, id uint16, b []byte) error {
	args := m.Called(ctx, id, b)
	return args.Error(0)
}

func (m *MockDevice) AdvertiseServiceData16(ctx context.Context, id uint16, b []byte) error {
	args := m.Called(ctx, id, b)
	return args.Error(0)
}

func (m *MockDevice) AdvertiseIBeaconData(ctx context.Context, b []byte) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockDevice) AdvertiseIBeacon(ctx context.Context, u ble.UUID, major, minor uint16, pwr int8) error {
	args := m.Called(ctx, u, major, minor, pwr)
	return args.Error(0)
}

func (m *MockDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	args := m.Called(ctx, allowDup, h)
	return args.Error(0)
}

func (m *MockDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	args := m.Called(ctx, a)
	if c := args.Get(0); c != nil {
		return c.(ble.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockClient implements ble.Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Addr() ble.Addr {
	args := m.Called()
	return args.Get(0).(ble.Addr)
}

func (m *MockClient) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) Profile() *ble.Profile {
	args := m.Called()
	if p := args.Get(0); p != nil {
		return p.(*ble.Profile)
	}
	return nil
}

func (m *MockClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	args := m.Called(force)
	if p := args.Get(0); p != nil {
		return p.(*ble.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	args := m.Called(filter)
	if s := args.Get(0); s != nil {
		return s.([]*ble.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) DiscoverIncludedServices(filter []ble.UUID, s *ble.Service) ([]*ble.Service, error) {
	args := m.Called(filter, s)
	if svcs := args.Get(0); svcs != nil {
		return svcs.([]*ble.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	args := m.Called(filter, s)
	if chars := args.Get(0); chars != nil {
		return chars.([]*ble.Characteristic), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) DiscoverDescriptors(filter []ble.UUID, c *ble.Characteristic) ([]*ble.Descriptor, error) {
	args := m.Called(filter, c)
	if ds := args.Get(0); ds != nil {
		return ds.([]*ble.Descriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) ReadCharacteristic(c *ble.Characteristic) ([]byte, error) {
	args := m.Called(c)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) ReadLongCharacteristic(c *ble.Characteristic) ([]byte, error) {
	args := m.Called(c)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	args := m.Called(c, value, noRsp)
	return args.Error(0)
}

func (m *MockClient) ReadDescriptor(d *ble.Descriptor) ([]byte, error) {
	args := m.Called(d)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) WriteDescriptor(d *ble.Descriptor, v []byte) error {
	args := m.Called(d, v)
	return args.Error(0)
}

func (m *MockClient) ReadRSSI() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockClient) ExchangeMTU(rxMTU int) (int, error) {
	args := m.Called(rxMTU)
	return args.Int(0), args.Error(1)
}

func (m *MockClient) Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	args := m.Called(c, ind, h)
	return args.Error(0)
}

func (m *MockClient) Unsubscribe(c *ble.Characteristic, ind bool) error {
	args := m.Called(c, ind)
	return args.Error(0)
}

func (m *MockClient) ClearSubscriptions() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) CancelConnection() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) Disconnected() <-chan struct{} {
	args := m.Called()
	return args.Get(0).(<-chan struct{})
}

func (m *MockClient) Conn() ble.Conn {
	args := m.Called()
	if c := args.Get(0); c != nil {
		return c.(ble.Conn)
	}
	return nil
}
