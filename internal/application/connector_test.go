package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectorFixture struct {
	connector  *Connector
	pool       *inMemoryPool
	correlator *fakeCorrelator
	tunnel     *fakeTunnel
	sessions   *inMemorySessionRepo
	log        *eventLog
}

func newConnectorFixture() connectorFixture {
	log := &eventLog{}
	pool := newInMemoryPool()
	correlator := newFakeCorrelator()
	correlator.log = log
	correlator.onRegister = func(id domain.CorrelationID) {
		time.AfterFunc(5*time.Millisecond, func() { correlator.fire(id) })
	}
	tunnel := &fakeTunnel{log: log}
	sessions := newInMemorySessionRepo()

	connector := NewConnector(ConnectorDeps{
		Pool:     pool,
		Hub:      correlator,
		Tunnel:   tunnel,
		Sessions: sessions,
		Clock:    fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	})

	return connectorFixture{
		connector:  connector,
		pool:       pool,
		correlator: correlator,
		tunnel:     tunnel,
		sessions:   sessions,
		log:        log,
	}
}

func TestConnectorLifecycle(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()
	ctx := context.Background()

	require.NoError(t, f.connector.Connect(ctx))
	assert.True(t, f.connector.Connected())
	assert.ErrorIs(t, f.connector.Connect(ctx), ErrAlreadyConnected)

	require.NoError(t, f.connector.Disconnect(ctx))
	assert.False(t, f.connector.Connected())
	require.NoError(t, f.connector.Disconnect(ctx))

	assert.Equal(t, []string{"hub.start", "tunnel.start", "tunnel.stop", "hub.close"}, f.log.snapshot())
}

func TestConnectorClosesHubWhenTunnelFails(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()
	f.tunnel.startErr = errBoom

	err := f.connector.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, f.connector.Connected())
	assert.Equal(t, []string{"hub.start", "tunnel.start", "hub.close"}, f.log.snapshot())
}

func TestConnectorDisconnectJoinsErrors(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()
	require.NoError(t, f.connector.Connect(context.Background()))
	f.tunnel.stopErr = errBoom

	err := f.connector.Disconnect(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, f.correlator.closed)
}

func TestConnectorStartBrowserRequiresConnection(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()

	_, err := f.connector.StartBrowser(context.Background(), startRequest(1, time.Second))
	assert.ErrorIs(t, err, ErrNotConnected)

	creates, _ := f.pool.counts()
	assert.Zero(t, creates)
}

func TestConnectorStartAndStopBrowser(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()
	ctx := context.Background()
	require.NoError(t, f.connector.Connect(ctx))

	worker, err := f.connector.StartBrowser(ctx, startRequest(3, time.Second))
	require.NoError(t, err)

	record, err := f.sessions.GetByID(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, "chrome 120 on Windows 11", record.Browser)
	assert.Equal(t, "http://localhost:3000/test", record.URL)
	assert.Equal(t, worker.SessionURL, record.SessionURL)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), record.StartedAt)

	url, err := f.connector.GetSessionURL(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, worker.SessionURL, url)

	elapsed, err := f.connector.StopBrowser(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, elapsed)

	_, err = f.sessions.GetByID(ctx, worker.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConnectorStopBrowserUnknownWorker(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()

	_, err := f.connector.StopBrowser(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteAPI)
	assert.Contains(t, err.Error(), "terminate worker missing")
}

func TestConnectorStopAll(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()
	ctx := context.Background()
	require.NoError(t, f.connector.Connect(ctx))

	for range 2 {
		_, err := f.connector.StartBrowser(ctx, startRequest(1, time.Second))
		require.NoError(t, err)
	}
	require.NoError(t, f.sessions.Save(ctx, domain.SessionRecord{WorkerID: "gone", StartedAt: time.Now()}))

	stopped, err := f.connector.StopAll(ctx)
	assert.Equal(t, 2, stopped)
	assert.ErrorIs(t, err, domain.ErrRemoteAPI)

	records, err := f.connector.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.WorkerID("gone"), records[0].WorkerID)
}

func TestConnectorFreeMachineCount(t *testing.T) {
	t.Parallel()

	f := newConnectorFixture()
	ctx := context.Background()
	require.NoError(t, f.connector.Connect(ctx))

	_, err := f.connector.StartBrowser(ctx, startRequest(1, time.Second))
	require.NoError(t, err)

	free, err := f.connector.FreeMachineCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, free)

	require.NoError(t, f.connector.WaitForFreeMachines(ctx, 4, time.Millisecond, 1))
	assert.ErrorIs(t, f.connector.WaitForFreeMachines(ctx, 5, time.Millisecond, 2), domain.ErrCapacityUnavailable)
}
