package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stratking/matchmaker/internal/model"
	"github.com/stratking/matchmaker/internal/notify"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size in bytes
	maxMessageSize = 4096

	// Buffer size for outgoing events
	sendBufferSize = 64
)

// ErrSendBufferFull is reported when a client cannot keep up with its
// event stream; the event is dropped rather than blocking the sender
var ErrSendBufferFull = errors.New("client send buffer full")

// errClientClosed is reported for sends after the channel closed
var errClientClosed = errors.New("client closed")

// client is one connected player's push-channel over a websocket
type client struct {
	playerID model.PlayerID
	conn     *websocket.Conn

	send chan model.Event
	done chan struct{}
	once sync.Once
}

// Ensure client implements the registry channel contract
var _ notify.Channel = (*client)(nil)

func newClient(playerID model.PlayerID, conn *websocket.Conn) *client {
	return &client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan model.Event, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Send queues an event for delivery. Never blocks: a closed channel or a
// full buffer drops the event with an error for the caller to log.
func (c *client) Send(event model.Event) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	case <-c.done:
		return errClientClosed
	default:
		return ErrSendBufferFull
	}
}

// Close shuts the channel down. Safe to call more than once; the write
// pump notices and closes the underlying connection.
func (c *client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writePump drains the send buffer onto the wire and keeps the connection
// alive with pings. One writer per connection: gorilla/websocket permits a
// single concurrent writer.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
