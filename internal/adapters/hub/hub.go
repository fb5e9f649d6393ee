package hub

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnema/browserfarm-cli/internal/domain"
	"github.com/bnema/browserfarm-cli/internal/ports"
)

const (
	DefaultPort        = 1000
	DefaultHost        = "localhost"
	DefaultBindAddress = "127.0.0.1"

	readHeaderTimeout = 5 * time.Second
)

var (
	ErrAlreadyRegistered = errors.New("correlation id already registered")
	ErrEmptyID           = errors.New("correlation id is required")
	ErrClosed            = errors.New("hub is closed")
)

type Config struct {
	// Host is the name remote browsers use to reach the hub through the tunnel.
	Host string
	// Port 0 picks an ephemeral port.
	Port int
	// BindAddress is the interface the listener binds; the tunnel reaches it on loopback.
	BindAddress string
}

// Hub receives the first navigation of a remote browser and wakes the open
// attempt registered for its correlation id.
type Hub struct {
	cfg      Config
	logger   ports.Logger
	observer ports.HubObserver

	mu       sync.Mutex
	waiters  map[domain.CorrelationID]*pending
	conns    map[net.Conn]struct{}
	listener net.Listener
	server   *http.Server
	closed   bool

	closeOnce sync.Once
	closeErr  error
}

var _ ports.Hub = (*Hub)(nil)

func New(cfg Config, logger ports.Logger, observer ports.HubObserver) *Hub {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = DefaultHost
	}
	if strings.TrimSpace(cfg.BindAddress) == "" {
		cfg.BindAddress = DefaultBindAddress
	}
	if cfg.Port < 0 {
		cfg.Port = DefaultPort
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}

	return &Hub{
		cfg:      cfg,
		logger:   logger.With("component", "hub"),
		observer: observer,
		waiters:  make(map[domain.CorrelationID]*pending),
		conns:    make(map[net.Conn]struct{}),
	}
}

func (h *Hub) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(h.cfg.BindAddress, strconv.Itoa(h.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen hub: %w", err)
	}

	h.listener = listener
	h.server = &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ConnState:         h.trackConn,
	}

	go func() {
		if serveErr := h.server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			h.logger.Error("hub stopped serving", "error", serveErr)
		}
	}()

	h.logger.Info("hub listening", "addr", listener.Addr().String())
	return nil
}

// Port reports the bound port once started, the configured one before.
func (h *Hub) Port() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener != nil {
		if tcpAddr, ok := h.listener.Addr().(*net.TCPAddr); ok {
			return tcpAddr.Port
		}
	}
	return h.cfg.Port
}

func (h *Hub) OpenURL(id domain.CorrelationID, target string) string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(h.cfg.Host, strconv.Itoa(h.Port())),
		Path:     "/" + string(id),
		RawQuery: url.Values{"url": []string{target}}.Encode(),
	}
	return u.String()
}

func (h *Hub) Register(id domain.CorrelationID) (ports.PendingOpen, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrEmptyID
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if _, exists := h.waiters[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}

	p := &pending{id: id, hub: h, opened: make(chan struct{}), abandoned: make(chan struct{})}
	h.waiters[id] = p
	return p, nil
}

// Waiting reports how many ids are currently registered.
func (h *Hub) Waiting() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters)
}

// Close stops the listener and drops every open connection, keep-alives included.
// Waiters still registered are signalled through Abandoned.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		server := h.server
		waiters := h.waiters
		h.waiters = make(map[domain.CorrelationID]*pending)
		h.mu.Unlock()

		for _, p := range waiters {
			p.abandon()
		}
		if server != nil {
			h.closeErr = server.Close()
		}
		h.logger.Info("hub closed", "abandoned_waiters", len(waiters))
	})
	return h.closeErr
}

func (h *Hub) notify(id domain.CorrelationID) bool {
	h.mu.Lock()
	p, ok := h.waiters[id]
	if ok {
		delete(h.waiters, id)
	}
	h.mu.Unlock()

	h.observer.Notification(ok)
	if !ok {
		h.logger.Debug("dropping notification without waiter", "correlation_id", id)
		return false
	}

	p.fire()
	return true
}

func (h *Hub) deregister(p *pending) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.waiters[p.id]; ok && current == p {
		delete(h.waiters, p.id)
	}
}

func (h *Hub) trackConn(conn net.Conn, state http.ConnState) {
	h.mu.Lock()
	switch state {
	case http.StateNew:
		h.conns[conn] = struct{}{}
	case http.StateClosed, http.StateHijacked:
		delete(h.conns, conn)
	}
	open := len(h.conns)
	h.mu.Unlock()

	h.observer.OpenConnections(open)
}

type pending struct {
	id          domain.CorrelationID
	hub         *Hub
	opened      chan struct{}
	abandoned   chan struct{}
	fireOnce    sync.Once
	abandonOnce sync.Once
}

func (p *pending) ID() domain.CorrelationID {
	return p.id
}

func (p *pending) Opened() <-chan struct{} {
	return p.opened
}

func (p *pending) Abandoned() <-chan struct{} {
	return p.abandoned
}

func (p *pending) Cancel() {
	p.hub.deregister(p)
}

func (p *pending) fire() {
	p.fireOnce.Do(func() {
		close(p.opened)
	})
}

func (p *pending) abandon() {
	p.abandonOnce.Do(func() {
		close(p.abandoned)
	})
}
