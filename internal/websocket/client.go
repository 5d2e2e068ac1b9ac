package websocket

import (
	"errors"
	"sync"
	"time"

	"lobby-backend/internal/dto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	ErrClientClosed   = errors.New("websocket client closed")
	ErrSendQueueFull  = errors.New("websocket send queue full")
	closeWriteTimeout = time.Second
)

// Client is one websocket connection. The lobby pushes events through
// Enqueue; writePump is the only goroutine that writes data frames.
type Client struct {
	conn *websocket.Conn
	id   string
	send chan dto.OutboundEnvelope
	log  *logrus.Entry

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, sendBuffer int, log *logrus.Entry) *Client {
	id := uuid.NewString()
	return &Client{
		conn: conn,
		id:   id,
		send: make(chan dto.OutboundEnvelope, sendBuffer),
		log:  log.WithField("conn_id", id),
	}
}

func (cl *Client) ID() string {
	return cl.id
}

// Enqueue never blocks. A full queue means the peer is not keeping up; the
// client is shut down and the caller drops it.
func (cl *Client) Enqueue(event dto.OutboundEnvelope) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.closed {
		return ErrClientClosed
	}
	select {
	case cl.send <- event:
		return nil
	default:
		cl.closeSendLocked()
		return ErrSendQueueFull
	}
}

// closeSend stops accepting events. writePump drains what is queued and
// then closes the socket.
func (cl *Client) closeSend() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.closeSendLocked()
}

func (cl *Client) closeSendLocked() {
	if !cl.closed {
		cl.closed = true
		close(cl.send)
	}
}

// closeWith sends a close frame ahead of anything the write pump still has
// queued and tears the socket down, which ends the read loop.
func (cl *Client) closeWith(code int, reason string) {
	deadline := time.Now().Add(closeWriteTimeout)
	_ = cl.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	cl.closeSend()
	_ = cl.conn.Close()
}

func (cl *Client) prepareRead(maxMessageSize int64, pongWait time.Duration) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (cl *Client) writePump(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		cl.closeSend()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case event, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteJSON(event); err != nil {
				cl.log.WithError(err).Debug("write failed")
				return
			}
			wsMessagesDelivered.Inc()
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
