package connect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		want    string
		wantErr bool
	}{
		{name: "insecure", origin: "http://localhost:8000", want: "ws://localhost:8000/ws"},
		{name: "secure", origin: "https://gerador.example.com", want: "wss://gerador.example.com/ws"},
		{name: "path ignored", origin: "http://10.0.0.1:9000/app/index.html", want: "ws://10.0.0.1:9000/ws"},
		{name: "upper scheme", origin: "HTTPS://h", want: "wss://h/ws"},
		{name: "no host", origin: "localhost", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WebsocketURL(tc.origin)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tc.origin, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("WebsocketURL error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("WebsocketURL(%q) = %q, want %q", tc.origin, got, tc.want)
			}
		})
	}
}

type fakeTimer struct{ stopped atomic.Bool }

func (f *fakeTimer) Stop() bool { f.stopped.Store(true); return true }

type fakeScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
	timers []*fakeTimer
}

func (s *fakeScheduler) after(d time.Duration, f func()) stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{}
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, f)
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

type recorder struct {
	open     chan struct{}
	messages chan string
	errs     chan error
	closes   chan struct{}
	order    chan string
}

func newRecorder() *recorder {
	return &recorder{
		open:     make(chan struct{}, 8),
		messages: make(chan string, 64),
		errs:     make(chan error, 8),
		closes:   make(chan struct{}, 8),
		order:    make(chan string, 64),
	}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnOpen:    func() { r.order <- "open"; r.open <- struct{}{} },
		OnMessage: func(p []byte) { r.messages <- string(p) },
		OnError:   func(err error) { r.order <- "error"; r.errs <- err },
		OnClose:   func() { r.order <- "close"; r.closes <- struct{}{} },
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func testOptions() Options {
	o := DefaultOptions()
	o.WriteWait = time.Second
	return o
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func newManager(url string, r *recorder, s *fakeScheduler) *Manager {
	m := NewManager(url, r.hooks(), testOptions(), nil)
	m.after = s.after
	return m
}

func TestManager_DeliversMessagesInOrderAndSends(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 5; i++ {
			_ = conn.WriteMessage(websocket.TextMessage, []byte{byte('a' + i)})
		}
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)

	rec := newRecorder()
	sched := &fakeScheduler{}
	m := newManager(wsURL(srv), rec, sched)
	m.Start(testContext(t))
	t.Cleanup(m.Close)

	waitSignal(t, rec.open, "open")
	if !m.IsOpen() {
		t.Fatalf("expected IsOpen after OnOpen")
	}

	var got []string
	for i := 0; i < 5; i++ {
		select {
		case msg := <-rec.messages:
			got = append(got, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
	if strings.Join(got, "") != "abcde" {
		t.Fatalf("messages out of order: %v", got)
	}

	if err := m.Send(map[string]string{"action": "gerar"}); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	select {
	case msg := <-received:
		var v map[string]string
		if err := json.Unmarshal(msg, &v); err != nil || v["action"] != "gerar" {
			t.Fatalf("unexpected outbound payload %s (err=%v)", msg, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server never received the outbound message")
	}
	if m.Metrics().Messages.Count() != 5 {
		t.Fatalf("expected 5 counted messages, got %d", m.Metrics().Messages.Count())
	}
}

func TestManager_ServerCloseSchedulesExactlyOneReconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var accepted atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted.Add(1)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)

	rec := newRecorder()
	sched := &fakeScheduler{}
	m := newManager(wsURL(srv), rec, sched)
	m.Start(testContext(t))
	t.Cleanup(m.Close)

	waitSignal(t, rec.open, "open")
	waitSignal(t, rec.closes, "close")

	if m.IsOpen() {
		t.Fatalf("expected closed manager after OnClose")
	}
	if n := sched.count(); n != 1 {
		t.Fatalf("expected exactly one scheduled reconnect, got %d", n)
	}
	if sched.delays[0] != 3*time.Second {
		t.Fatalf("expected 3s reconnect delay, got %s", sched.delays[0])
	}
	select {
	case err := <-rec.errs:
		t.Fatalf("normal close must not report an error, got %v", err)
	default:
	}

	// firing the timer dials again
	sched.fns[0]()
	waitSignal(t, rec.open, "second open")
	if accepted.Load() != 2 {
		t.Fatalf("expected second connection, got %d", accepted.Load())
	}
}

func TestManager_AbruptCloseReportsErrorThenClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.UnderlyingConn().Close()
	}))
	t.Cleanup(srv.Close)

	rec := newRecorder()
	sched := &fakeScheduler{}
	m := newManager(wsURL(srv), rec, sched)
	m.Start(testContext(t))
	t.Cleanup(m.Close)

	waitSignal(t, rec.open, "open")
	waitSignal(t, rec.closes, "close")

	want := []string{"open", "error", "close"}
	for _, w := range want {
		select {
		case got := <-rec.order:
			if got != w {
				t.Fatalf("hook order: got %q want %q", got, w)
			}
		default:
			t.Fatalf("missing hook %q", w)
		}
	}
	if sched.count() != 1 {
		t.Fatalf("expected one reconnect, got %d", sched.count())
	}
}

func TestManager_DialFailureReportsErrorCloseAndRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	rec := newRecorder()
	sched := &fakeScheduler{}
	m := newManager(url, rec, sched)
	m.Start(testContext(t))
	t.Cleanup(m.Close)

	waitSignal(t, rec.closes, "close")
	select {
	case <-rec.errs:
	default:
		t.Fatalf("expected OnError before OnClose on dial failure")
	}
	if m.IsOpen() {
		t.Fatalf("manager must not be open after failed dial")
	}
	if err := m.Send("x"); err != ErrNotOpen {
		t.Fatalf("Send on closed manager = %v, want ErrNotOpen", err)
	}
	if sched.count() != 1 {
		t.Fatalf("expected one reconnect, got %d", sched.count())
	}

	// the retry fails again and schedules exactly one more attempt
	sched.fns[0]()
	waitSignal(t, rec.closes, "second close")
	if sched.count() != 2 {
		t.Fatalf("expected second reconnect after retry, got %d", sched.count())
	}
}

func TestManager_CloseCancelsReconnectAndSilencesHooks(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	rec := newRecorder()
	sched := &fakeScheduler{}
	m := newManager(wsURL(srv), rec, sched)
	m.Start(testContext(t))
	waitSignal(t, rec.open, "open")

	m.Close()
	if m.IsOpen() {
		t.Fatalf("expected closed after Close")
	}
	select {
	case <-rec.closes:
		t.Fatalf("OnClose must not fire for a local teardown")
	case <-time.After(100 * time.Millisecond):
	}
	if sched.count() != 0 {
		t.Fatalf("teardown must not schedule a reconnect, got %d", sched.count())
	}
}

func TestManager_CloseBeforeOpenHookSilencesOpen(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	rec := newRecorder()
	m := newManager(wsURL(srv), rec, &fakeScheduler{})
	if m.URL() != wsURL(srv) {
		t.Fatalf("URL mismatch: got %s", m.URL())
	}
	m.Start(testContext(t))
	waitSignal(t, rec.open, "open")

	// replay the window between attaching the channel and reporting it open
	m.mu.Lock()
	ch := m.ch
	m.mu.Unlock()
	if ch == nil {
		t.Fatalf("expected a live channel after open")
	}
	m.Close()
	m.fireOpen(ch)

	select {
	case <-rec.open:
		t.Fatalf("OnOpen must not fire after Close")
	case <-time.After(100 * time.Millisecond):
	}
	select {
	case <-ch.Done():
	default:
		t.Fatalf("expected the channel to be shut down by Close")
	}
}
