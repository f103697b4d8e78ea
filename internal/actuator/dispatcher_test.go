package actuator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/tpmon/internal/testutils"
)

func TestDispatcherRunsFirstCycleImmediately(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	targets := func() []Target {
		return []Target{
			{Room: "Schlafzimmer", Actuator: Actuator{Endpoint: srv.URL + "/relay/2", Mode: Manual{Level: 3}}},
		}
	}
	d := NewDispatcher(targets, NewClient(time.Second), time.Hour, testutils.NewTestHelper(t).Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.Eventually(t, func() bool { return hits.Load() == 1 },
		time.Second, 5*time.Millisecond, "the first cycle must not wait a full period")
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	var gotTimer atomic.Value
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotTimer.Store(r.URL.Query().Get("timer"))
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadEndpoint := dead.URL
	dead.Close()

	targets := func() []Target {
		return []Target{
			{Room: "Keller", Actuator: Actuator{Endpoint: deadEndpoint, Mode: Manual{Level: 1}}},
			{Room: "Bad", Actuator: Actuator{Endpoint: srv.URL, Mode: Auto{Target: 21.0}}},
			{Room: "Wohnzimmer", Actuator: Actuator{Endpoint: srv.URL, Mode: Manual{Level: 6}}},
		}
	}
	d := NewDispatcher(targets, NewClient(time.Second), time.Hour, testutils.NewTestHelper(t).Logger)

	d.Dispatch(context.Background())

	assert.Equal(t, int32(1), hits.Load(), "only the healthy manual target issues a request")
	assert.Equal(t, "3600", gotTimer.Load(), "level 6 runs the heater for the full period")
}

func TestSendAutoModeIsNotImplemented(t *testing.T) {
	logger := testutils.NewTestHelper(t).Logger
	d := NewDispatcher(nil, NewClient(time.Second), time.Hour, logger)

	err := d.send(context.Background(), logrus.NewEntry(logger), Target{
		Room:     "Bad",
		Actuator: Actuator{Endpoint: "http://relay.local", Mode: Auto{Target: 21.5}},
	})
	assert.ErrorIs(t, err, ErrAutoNotImplemented)
}

func TestSendRejectsExcessiveLevel(t *testing.T) {
	logger := testutils.NewTestHelper(t).Logger
	d := NewDispatcher(nil, NewClient(time.Second), time.Hour, logger)

	err := d.send(context.Background(), logrus.NewEntry(logger), Target{
		Room:     "Bad",
		Actuator: Actuator{Endpoint: "http://relay.local", Mode: Manual{Level: 9}},
	})
	assert.ErrorIs(t, err, ErrLevelOutOfRange)
}
