package devserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gerador/connect"
	"gerador/internal/proto"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// peer is one connected browser or terminal client.
type peer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps every open socket and broadcasts job events to all of them.
type Hub struct {
	opts     connect.Options
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	peers map[*peer]struct{}
	log   *logrus.Entry
}

func NewHub(opts connect.Options) *Hub {
	return &Hub{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
		log:   logrus.WithField("component", "hub"),
	}
}

// Serve upgrades the request and runs the peer's pumps.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("serveWs err:%s", err.Error())
		return
	}
	p := &peer{conn: conn, send: make(chan []byte, h.opts.SendBuffer)}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	h.log.Infof("peer connected, total=%d", h.Count())

	go h.writePump(p)
	go h.readPump(p)
}

// Broadcast sends v to every peer. A peer whose queue is full misses the
// message; the others are unaffected.
func (h *Hub) Broadcast(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal broadcast")
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.peers {
		select {
		case p.send <- body:
		default:
			h.log.Warn("peer send queue full, dropping message")
		}
	}
	return nil
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		delete(h.peers, p)
		close(p.send)
	}
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.peers[p]; ok {
		delete(h.peers, p)
		close(p.send)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(h.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case message, ok := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Warnf("write err:%s", err.Error())
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive. Clients announce jobs over the
// socket too, but the POST is what starts them.
func (h *Hub) readPump(p *peer) {
	defer func() {
		h.remove(p)
		h.log.Infof("peer disconnected, total=%d", h.Count())
	}()
	p.conn.SetReadLimit(h.opts.MaxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		return nil
	})
	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("readPump ReadMessage err:%s", err.Error())
			}
			return
		}
		var n proto.Notify
		if err := json.Unmarshal(message, &n); err != nil {
			h.log.Debugf("ignoring non-json message: %s", err.Error())
			continue
		}
		h.log.WithField("action", n.Action).Infof("notify received radical=%q", n.Config.Radical)
	}
}
