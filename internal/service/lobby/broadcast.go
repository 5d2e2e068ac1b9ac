package lobby

import (
	"fmt"

	"lobby-backend/internal/dto"

	"github.com/sirupsen/logrus"
)

// Conn is a connection's outbound side as the lobby sees it. Enqueue must
// not block; it fails when the connection's queue is full or closed.
// Connections are compared by handle.
type Conn interface {
	ID() string
	Enqueue(event dto.OutboundEnvelope) error
}

func (s *Service) sendTo(conn Conn, action dto.Action, payload interface{}) error {
	if err := conn.Enqueue(dto.OutboundEnvelope{Action: action, Payload: payload}); err != nil {
		return fmt.Errorf("send %s to %s: %w", action, conn.ID(), err)
	}
	return nil
}

// broadcastLocked enqueues the event on every connection subscribed to r,
// skipping exclude. A connection that cannot take the event is dropped from
// the room; the rest still get it.
func (s *Service) broadcastLocked(r *room, action dto.Action, payload interface{}, exclude ...Conn) {
	event := dto.OutboundEnvelope{Action: action, Payload: payload}
	for conn := range r.conns {
		if excluded(conn, exclude) {
			continue
		}
		if err := conn.Enqueue(event); err != nil {
			r.unsubscribe(conn)
			broadcastDrops.Inc()
			s.log.WithError(err).WithFields(logrus.Fields{
				"room_id": r.id,
				"conn_id": conn.ID(),
				"action":  string(action),
			}).Warn("dropping connection after failed send")
		}
	}
}

func excluded(conn Conn, exclude []Conn) bool {
	for _, c := range exclude {
		if c == conn {
			return true
		}
	}
	return false
}
