package scanner_test

import (
	"context"
	"errors"
	"testing"

	blelib "github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	suitelib "github.com/stretchr/testify/suite"

	"github.com/srg/tpmon/internal/testutils"
	"github.com/srg/tpmon/internal/testutils/mocks"
	"github.com/srg/tpmon/scanner"
)

type ScannerTestSuite struct {
	suitelib.Suite

	helper *testutils.TestHelper
}

func TestScannerSuite(t *testing.T) {
	suitelib.Run(t, new(ScannerTestSuite))
}

func (suite *ScannerTestSuite) SetupTest() {
	suite.helper = testutils.NewTestHelper(suite.T())
}

// adapterWith builds a mocked adapter whose Scan replays the given
// advertisements and returns.
func (suite *ScannerTestSuite) adapterWith(advs ...blelib.Advertisement) *mocks.MockDevice {
	adapter := &mocks.MockDevice{}
	adapter.On("Scan", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			handler := args.Get(2).(blelib.AdvHandler)
			for _, adv := range advs {
				handler(adv)
			}
		}).
		Return(nil)
	return adapter
}

func drainCandidates(s *scanner.Scanner) []scanner.Candidate {
	var out []scanner.Candidate
	for {
		select {
		case c := <-s.Candidates():
			out = append(out, c)
		default:
			return out
		}
	}
}

func drainEvents(s *scanner.Scanner) []scanner.Event {
	var out []scanner.Event
	for {
		select {
		case ev := <-s.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (suite *ScannerTestSuite) TestDiscoveredDevicesBecomeCandidates() {
	adv1 := testutils.NewSensorAdvertisement("TP357S (1C2B)", "aa:bb:cc:dd:ee:ff", -45).Build()
	adv2 := testutils.NewSensorAdvertisement("TP357 (5E80)", "11:22:33:44:55:66", -67).Build()
	adv3 := testutils.NewSensorAdvertisement("Unrelated", "99:88:77:66:55:44", -80).Build()

	s := scanner.New(suite.adapterWith(adv1, adv2, adv3), scanner.Options{}, suite.helper.Logger)
	require.NoError(suite.T(), s.Run(context.Background()))

	cands := drainCandidates(s)
	suite.Len(cands, 3)
	suite.Equal("AA:BB:CC:DD:EE:FF", cands[0].Address)
	suite.Equal("TP357S (1C2B)", cands[0].Name)
	suite.Equal(-45, cands[0].RSSI)
	suite.Equal("11:22:33:44:55:66", cands[1].Address)
	suite.Equal("99:88:77:66:55:44", cands[2].Address)

	suite.Len(s.Snapshot(), 3)
}

func (suite *ScannerTestSuite) TestRepeatSightingsClaimOnce() {
	adv := testutils.NewSensorAdvertisement("TP357S (1C2B)", "AA:BB:CC:DD:EE:FF", -45).Build()

	s := scanner.New(suite.adapterWith(adv, adv, adv), scanner.Options{WithEvents: true}, suite.helper.Logger)
	require.NoError(suite.T(), s.Run(context.Background()))

	suite.Len(drainCandidates(s), 1, "a claimed device must not be offered again")

	events := drainEvents(s)
	suite.Len(events, 3)
	suite.Equal(scanner.EventNew, events[0].Type)
	suite.Equal(scanner.EventUpdated, events[1].Type)
	suite.Equal(scanner.EventUpdated, events[2].Type)
}

func (suite *ScannerTestSuite) TestAllowListFiltersDevices() {
	adv1 := testutils.NewSensorAdvertisement("TP357S (1C2B)", "AA:BB:CC:DD:EE:FF", -45).Build()
	adv2 := testutils.NewSensorAdvertisement("TP357 (5E80)", "11:22:33:44:55:66", -67).Build()

	opts := scanner.Options{AllowList: []string{"aa:bb:cc:dd:ee:ff"}}
	s := scanner.New(suite.adapterWith(adv1, adv2), opts, suite.helper.Logger)
	require.NoError(suite.T(), s.Run(context.Background()))

	cands := drainCandidates(s)
	suite.Len(cands, 1)
	suite.Equal("AA:BB:CC:DD:EE:FF", cands[0].Address)

	devs := s.Snapshot()
	suite.Len(devs, 1, "devices outside the allow list are not tracked")
	suite.Equal("AA:BB:CC:DD:EE:FF", devs[0].Address)
}

func (suite *ScannerTestSuite) TestReleaseOffersDeviceAgain() {
	adv := testutils.NewSensorAdvertisement("TP357S (1C2B)", "AA:BB:CC:DD:EE:FF", -45).Build()
	s := scanner.New(suite.adapterWith(adv), scanner.Options{}, suite.helper.Logger)

	require.NoError(suite.T(), s.Run(context.Background()))
	suite.Len(drainCandidates(s), 1)

	// Still claimed: another discovery pass offers nothing.
	require.NoError(suite.T(), s.Run(context.Background()))
	suite.Empty(drainCandidates(s))

	s.Release("aa:bb:cc:dd:ee:ff")
	require.NoError(suite.T(), s.Run(context.Background()))
	suite.Len(drainCandidates(s), 1, "a released device is offered on its next sighting")
}

func (suite *ScannerTestSuite) TestNameCarriedAcrossSightings() {
	named := testutils.NewSensorAdvertisement("TP357S (1C2B)", "AA:BB:CC:DD:EE:FF", -45).Build()
	nameless := testutils.NewAdvertisementBuilder().
		WithName("").
		WithAddress("AA:BB:CC:DD:EE:FF").
		WithRSSI(-51).
		WithConnectable(true).
		Build()

	s := scanner.New(suite.adapterWith(named, nameless), scanner.Options{}, suite.helper.Logger)
	require.NoError(suite.T(), s.Run(context.Background()))

	devs := s.Snapshot()
	suite.Len(devs, 1)
	suite.Equal("TP357S (1C2B)", devs[0].Name, "an empty name must not erase a known one")
	suite.Equal(-51, devs[0].RSSI)
}

func (suite *ScannerTestSuite) TestClassicTransportIsRejected() {
	adapter := &mocks.MockDevice{}
	s := scanner.New(adapter, scanner.Options{Transport: scanner.TransportClassic}, suite.helper.Logger)

	err := s.Run(context.Background())
	suite.ErrorIs(err, scanner.ErrClassicUnsupported)
	adapter.AssertNotCalled(suite.T(), "Scan", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ScannerTestSuite) TestRunErrors() {
	suite.Run("adapter failure is surfaced", func() {
		adapter := &mocks.MockDevice{}
		adapter.On("Scan", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("hci device down"))

		s := scanner.New(adapter, scanner.Options{}, suite.helper.Logger)
		err := s.Run(context.Background())
		suite.ErrorContains(err, "scan failed")
	})

	suite.Run("context cancellation is a clean stop", func() {
		adapter := &mocks.MockDevice{}
		adapter.On("Scan", mock.Anything, mock.Anything, mock.Anything).
			Return(context.Canceled)

		s := scanner.New(adapter, scanner.Options{}, suite.helper.Logger)
		suite.NoError(s.Run(context.Background()))
	})
}

func (suite *ScannerTestSuite) TestEventsSilentByDefault() {
	adv := testutils.NewSensorAdvertisement("TP357S (1C2B)", "AA:BB:CC:DD:EE:FF", -45).Build()
	s := scanner.New(suite.adapterWith(adv), scanner.Options{}, suite.helper.Logger)

	require.NoError(suite.T(), s.Run(context.Background()))
	suite.Empty(drainEvents(s))
}
