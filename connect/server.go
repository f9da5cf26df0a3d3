package connect

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"gerador/config"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotOpen        = errors.New("websocket is not open")
	ErrSendQueueFull  = errors.New("websocket send queue full")
	ErrManagerStopped = errors.New("connection manager stopped")
)

// Hooks mirror the lifecycle callbacks of a browser WebSocket. They run on
// the manager's goroutines; OnMessage is called in receipt order.
type Hooks struct {
	OnOpen    func()
	OnMessage func(payload []byte)
	OnError   func(err error)
	OnClose   func()
}

type Options struct {
	ReconnectDelay   time.Duration // fixed, no backoff
	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PongWait         time.Duration
	PingPeriod       time.Duration // must be < PongWait
	MaxMessageSize   int64
	SendBuffer       int
}

func OptionsFromConfig(c *config.Config) Options {
	return Options{
		ReconnectDelay:   c.Client.ReconnectDelay,
		HandshakeTimeout: c.Client.HandshakeTimeout,
		WriteWait:        c.Connect.WriteWait,
		PongWait:         c.Connect.PongWait,
		PingPeriod:       c.Connect.PingPeriod,
		MaxMessageSize:   c.Connect.MaxMessageSize,
		SendBuffer:       c.Connect.SendBuffer,
	}
}

// DefaultOptions matches the config defaults.
func DefaultOptions() Options {
	return Options{
		ReconnectDelay:   3 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		PingPeriod:       54 * time.Second,
		MaxMessageSize:   8 << 20,
		SendBuffer:       16,
	}
}

// WebsocketURL derives the socket endpoint from a page origin: wss for https
// origins, ws otherwise, always at /ws.
func WebsocketURL(origin string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", errors.Wrapf(err, "parse origin %q", origin)
	}
	if u.Host == "" {
		return "", errors.Errorf("origin %q has no host", origin)
	}
	scheme := "ws"
	if strings.EqualFold(u.Scheme, "https") || strings.EqualFold(u.Scheme, "wss") {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: "/ws"}).String(), nil
}

type stopper interface {
	Stop() bool
}

func afterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Metrics counts connection lifecycle events.
type Metrics struct {
	Dials      metrics.Counter
	DialErrors metrics.Counter
	Reconnects metrics.Counter
	Messages   metrics.Counter
	Errors     metrics.Counter
}

func NewMetrics(r metrics.Registry) *Metrics {
	return &Metrics{
		Dials:      metrics.GetOrRegisterCounter("connect.dials", r),
		DialErrors: metrics.GetOrRegisterCounter("connect.dial_errors", r),
		Reconnects: metrics.GetOrRegisterCounter("connect.reconnects", r),
		Messages:   metrics.GetOrRegisterCounter("connect.messages", r),
		Errors:     metrics.GetOrRegisterCounter("connect.errors", r),
	}
}

// Manager keeps one websocket open to the backend and reopens it after every
// close, one attempt at a time.
type Manager struct {
	url     string
	opts    Options
	hooks   Hooks
	dialer  *websocket.Dialer
	after   func(time.Duration, func()) stopper
	metrics *Metrics
	log     *logrus.Entry

	mu      sync.Mutex
	ctx     context.Context
	ch      *Channel
	timer   stopper
	stopped bool
}

func NewManager(wsURL string, hooks Hooks, opts Options, reg metrics.Registry) *Manager {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 16
	}
	return &Manager{
		url:   wsURL,
		opts:  opts,
		hooks: hooks,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		after:   afterFunc,
		metrics: NewMetrics(reg),
		log:     logrus.WithField("ws", wsURL),
	}
}

func (m *Manager) URL() string { return m.url }

func (m *Manager) Metrics() *Metrics { return m.metrics }

// Start dials in the background. Failures surface through the hooks and are
// retried like any other close.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
	go m.connect()
}

// IsOpen reports whether a connection is currently established.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch != nil
}

// Send queues v as a JSON text frame. It never waits for an answer.
func (m *Manager) Send(v any) error {
	m.mu.Lock()
	ch := m.ch
	m.mu.Unlock()
	if ch == nil {
		return ErrNotOpen
	}
	return ch.Push(v)
}

// Close stops reconnecting and closes the live connection, if any. Hooks are
// not called for a close initiated here.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	ch := m.ch
	m.ch = nil
	m.mu.Unlock()
	if ch != nil {
		ch.shutdown(m.opts.WriteWait)
	}
}

func (m *Manager) connect() {
	m.mu.Lock()
	ctx := m.ctx
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.metrics.Dials.Inc(1)
	conn, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		m.metrics.DialErrors.Inc(1)
		m.log.Warnf("dial err: %s", err.Error())
		// a failed dial reports error then close, like a browser socket
		m.fireError(err)
		m.scheduleReconnect()
		m.fireClose()
		return
	}

	ch := NewChannel(conn, m.opts.SendBuffer)
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		ch.shutdown(m.opts.WriteWait)
		return
	}
	m.ch = ch
	m.mu.Unlock()

	m.log.Info("websocket connected")
	m.fireOpen(ch)
	go m.writePump(ch)
	go m.readPump(ch)
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.timer != nil {
		return
	}
	if m.ctx != nil && m.ctx.Err() != nil {
		return
	}
	m.metrics.Reconnects.Inc(1)
	m.log.Infof("reconnecting in %s", m.opts.ReconnectDelay)
	m.timer = m.after(m.opts.ReconnectDelay, func() {
		m.mu.Lock()
		m.timer = nil
		m.mu.Unlock()
		m.connect()
	})
}

// detach clears ch as the live connection and reports whether the manager
// was torn down.
func (m *Manager) detach(ch *Channel) (stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch == ch {
		m.ch = nil
	}
	return m.stopped
}

// fireOpen reports ch as open unless Close ran after it was attached.
func (m *Manager) fireOpen(ch *Channel) {
	m.mu.Lock()
	live := !m.stopped && m.ch == ch
	m.mu.Unlock()
	if live && m.hooks.OnOpen != nil {
		m.hooks.OnOpen()
	}
}

func (m *Manager) fireError(err error) {
	m.metrics.Errors.Inc(1)
	if m.hooks.OnError != nil {
		m.hooks.OnError(err)
	}
}

func (m *Manager) fireClose() {
	if m.hooks.OnClose != nil {
		m.hooks.OnClose()
	}
}
