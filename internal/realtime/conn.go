package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/peerpresence/server-go/internal/config"
)

var (
	errConnClosed = errors.New("connection closed")
	errBufferFull = errors.New("connection buffer exceeded")
)

// Conn is one websocket session. PersonID is empty for anonymous sockets.
// Writes go through a buffered channel drained by a single writer goroutine.
type Conn struct {
	ID       string
	PersonID string

	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn(personID string, ws *websocket.Conn) *Conn {
	return &Conn{
		ID:       uuid.NewString(),
		PersonID: personID,
		ws:       ws,
		send:     make(chan []byte, config.SocketSendBuffer),
		done:     make(chan struct{}),
	}
}

func (c *Conn) start() {
	go c.writeLoop()
}

// Send enqueues payload. A slow client whose buffer is full is disconnected.
func (c *Conn) Send(payload []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case <-c.done:
		return errConnClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.ClosePolicyViolation, "send buffer full")
		return errBufferFull
	}
}

func (c *Conn) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(config.SocketWriteWait)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(config.SocketPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Conn) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(config.SocketWriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
