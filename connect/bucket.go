package connect

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Channel is one live websocket with its outbound queue. Only the write pump
// writes data frames to conn.
type Channel struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewChannel(conn *websocket.Conn, size int) *Channel {
	return &Channel{
		conn: conn,
		send: make(chan []byte, size),
		done: make(chan struct{}),
	}
}

// Push marshals v and queues it without blocking.
func (ch *Channel) Push(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal outbound message")
	}
	return ch.PushBytes(body)
}

func (ch *Channel) PushBytes(body []byte) error {
	select {
	case <-ch.done:
		return ErrNotOpen
	default:
	}
	select {
	case ch.send <- body:
		return nil
	case <-ch.done:
		return ErrNotOpen
	default:
		return ErrSendQueueFull
	}
}

// Done is closed once the channel shuts down.
func (ch *Channel) Done() <-chan struct{} { return ch.done }

func (ch *Channel) shutdown(writeWait time.Duration) {
	ch.closeOnce.Do(func() {
		close(ch.done)
		_ = ch.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = ch.conn.Close()
	})
}
