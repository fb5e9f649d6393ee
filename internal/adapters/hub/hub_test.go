package hub

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRedirectsAndNotifiesRegisteredWaiter(t *testing.T) {
	t.Parallel()

	h := startHub(t, nil)
	pending, err := h.Register("abc123")
	require.NoError(t, err)
	defer pending.Cancel()

	resp, err := noRedirectClient().Get(h.OpenURL("abc123", "https://example.com/page?a=1"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/page?a=1", resp.Header.Get("Location"))

	select {
	case <-pending.Opened():
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not notified")
	}
	assert.Equal(t, 0, h.Waiting())
}

func TestHubOpenURLRoutesThroughCorrelationPath(t *testing.T) {
	t.Parallel()

	h := New(Config{Host: "bs-local.com", Port: 1000}, nil, nil)

	assert.Equal(t,
		"http://bs-local.com:1000/abc123?url=http%3A%2F%2Flocalhost%3A3000%2Fpage%3Fa%3D1",
		h.OpenURL("abc123", "http://localhost:3000/page?a=1"),
	)
}

func TestHubIsolatesConcurrentCorrelationIDs(t *testing.T) {
	t.Parallel()

	h := startHub(t, nil)

	const total = 40
	handles := make([]ports.PendingOpen, 0, total)
	for i := 0; i < total; i++ {
		p, err := h.Register(domain.CorrelationID(fmt.Sprintf("id-%d", i)))
		require.NoError(t, err)
		handles = append(handles, p)
	}

	var wg sync.WaitGroup
	for i := 0; i < total; i += 2 {
		wg.Add(1)
		go func(id domain.CorrelationID) {
			defer wg.Done()
			resp, err := noRedirectClient().Get(h.OpenURL(id, "http://example.com/"))
			if err == nil {
				_ = resp.Body.Close()
			}
		}(handles[i].ID())
	}
	wg.Wait()

	for i, p := range handles {
		if i%2 == 0 {
			select {
			case <-p.Opened():
			case <-time.After(2 * time.Second):
				t.Fatalf("waiter %s was not notified", p.ID())
			}
			continue
		}

		select {
		case <-p.Opened():
			t.Fatalf("waiter %s was notified for another id", p.ID())
		default:
		}
		p.Cancel()
	}
	assert.Equal(t, 0, h.Waiting())
}

func TestHubNeverLosesWakeupWhenRegisteredFirst(t *testing.T) {
	t.Parallel()

	h := startHub(t, nil)
	client := noRedirectClient()

	for i := 0; i < 50; i++ {
		id := domain.NewCorrelationID()
		pending, err := h.Register(id)
		require.NoError(t, err)

		go func() {
			resp, err := client.Get(h.OpenURL(id, "http://example.com/"))
			if err == nil {
				_ = resp.Body.Close()
			}
		}()

		select {
		case <-pending.Opened():
		case <-time.After(2 * time.Second):
			t.Fatalf("lost wakeup for %s", id)
		}
	}
}

func TestHubDropsNotificationsWithoutWaiter(t *testing.T) {
	t.Parallel()

	observer := &recordingObserver{}
	h := startHub(t, observer)

	pending, err := h.Register("once")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := noRedirectClient().Get(h.OpenURL("once", "http://example.com/"))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	}

	resp, err := noRedirectClient().Get(h.OpenURL("unknown", "http://example.com/"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	<-pending.Opened()
	delivered, dropped := observer.counts()
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, dropped)
}

func TestHubCancelledWaiterIsNotNotified(t *testing.T) {
	t.Parallel()

	h := startHub(t, nil)
	pending, err := h.Register("late")
	require.NoError(t, err)
	pending.Cancel()
	pending.Cancel()

	resp, err := noRedirectClient().Get(h.OpenURL("late", "http://example.com/"))
	require.NoError(t, err)
	_ = resp.Body.Close()

	select {
	case <-pending.Opened():
		t.Fatal("cancelled waiter must not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRegisterRejectsDuplicateLiveID(t *testing.T) {
	t.Parallel()

	h := New(Config{Port: 0}, nil, nil)
	first, err := h.Register("dup")
	require.NoError(t, err)

	_, err = h.Register("dup")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	first.Cancel()
	second, err := h.Register("dup")
	require.NoError(t, err)
	second.Cancel()

	_, err = h.Register("")
	require.ErrorIs(t, err, ErrEmptyID)
}

func TestHubHandlerRejectsBadRequests(t *testing.T) {
	t.Parallel()

	h := New(Config{Port: 0}, nil, nil)
	pending, err := h.Register("abc")
	require.NoError(t, err)
	defer pending.Cancel()

	cases := []struct {
		name   string
		method string
		target string
		status int
	}{
		{name: "missing url", method: http.MethodGet, target: "/abc", status: http.StatusBadRequest},
		{name: "non http url", method: http.MethodGet, target: "/abc?url=javascript%3Aalert(1)", status: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodPost, target: "/abc?url=http%3A%2F%2Fexample.com", status: http.StatusMethodNotAllowed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Handler().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	select {
	case <-pending.Opened():
		t.Fatal("rejected requests must not notify")
	default:
	}
}

func TestHubCloseDropsKeepAliveConnections(t *testing.T) {
	t.Parallel()

	h := New(Config{Port: 0}, nil, nil)
	require.NoError(t, h.Start())

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(h.Port())))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_, err = fmt.Fprint(conn, "GET /keep?url=http%3A%2F%2Fexample.com HTTP/1.1\r\nHost: localhost\r\n\r\n")
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	resp, err := http.ReadResponse(reader, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = reader.ReadByte()
	require.Error(t, err)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "connection should be closed by the hub, not time out")
	}

	_, err = h.Register("after-close")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, h.Start(), ErrClosed)
}

func TestHubCloseAbandonsOutstandingWaiters(t *testing.T) {
	t.Parallel()

	h := New(Config{Port: 0}, nil, nil)
	require.NoError(t, h.Start())

	first, err := h.Register("first")
	require.NoError(t, err)
	second, err := h.Register("second")
	require.NoError(t, err)

	require.NoError(t, h.Close())

	for _, p := range []ports.PendingOpen{first, second} {
		select {
		case <-p.Abandoned():
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter %s was not released on close", p.ID())
		}
		select {
		case <-p.Opened():
			t.Fatalf("waiter %s reported open after close", p.ID())
		default:
		}
		p.Cancel()
	}
	assert.Zero(t, h.Waiting())

	_, err = h.Register("third")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHubBindsLoopbackByDefault(t *testing.T) {
	t.Parallel()

	h := New(Config{Port: 0}, nil, nil)
	require.NoError(t, h.Start())
	t.Cleanup(func() { _ = h.Close() })

	h.mu.Lock()
	addr, ok := h.listener.Addr().(*net.TCPAddr)
	h.mu.Unlock()
	require.True(t, ok)
	assert.True(t, addr.IP.IsLoopback(), "hub bound to %s", addr)
}

func startHub(t *testing.T, observer ports.HubObserver) *Hub {
	t.Helper()

	h := New(Config{Host: "127.0.0.1", Port: 0}, nil, observer)
	require.NoError(t, h.Start())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	delivered int
	dropped   int
}

func (o *recordingObserver) Notification(delivered bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if delivered {
		o.delivered++
		return
	}
	o.dropped++
}

func (o *recordingObserver) OpenConnections(int) {}

func (o *recordingObserver) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.delivered, o.dropped
}
