package connect

import (
	"time"

	"github.com/gorilla/websocket"
)

// writePump drains the outbound queue and keeps the connection alive with
// pings. A failed write shuts the channel down, which ends readPump.
func (m *Manager) writePump(ch *Channel) {
	ticker := time.NewTicker(m.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ch.Done():
			return
		case message := <-ch.send:
			_ = ch.conn.SetWriteDeadline(time.Now().Add(m.opts.WriteWait))
			if err := ch.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				m.log.Warnf("write err: %s", err.Error())
				ch.shutdown(m.opts.WriteWait)
				return
			}
		case <-ticker.C:
			_ = ch.conn.SetWriteDeadline(time.Now().Add(m.opts.WriteWait))
			if err := ch.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				m.log.Warnf("ping err: %s", err.Error())
				ch.shutdown(m.opts.WriteWait)
				return
			}
		}
	}
}

// readPump is the only reader; every data frame goes to OnMessage in the
// order it arrived. When the read fails one reconnection is scheduled and
// the close is reported.
func (m *Manager) readPump(ch *Channel) {
	if m.opts.MaxMessageSize > 0 {
		ch.conn.SetReadLimit(m.opts.MaxMessageSize)
	}
	_ = ch.conn.SetReadDeadline(time.Now().Add(m.opts.PongWait))
	ch.conn.SetPongHandler(func(string) error {
		return ch.conn.SetReadDeadline(time.Now().Add(m.opts.PongWait))
	})

	for {
		_, message, err := ch.conn.ReadMessage()
		if err != nil {
			stopped := m.detach(ch)
			ch.shutdown(m.opts.WriteWait)
			if stopped {
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.log.Errorf("readPump ReadMessage err: %s", err.Error())
				m.fireError(err)
			} else {
				m.log.Info("websocket closed by server")
			}
			m.scheduleReconnect()
			m.fireClose()
			return
		}
		m.metrics.Messages.Inc(1)
		if m.hooks.OnMessage != nil {
			m.hooks.OnMessage(message)
		}
	}
}
