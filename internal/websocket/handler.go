package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"lobby-backend/internal/dto"
	"lobby-backend/internal/service/lobby"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	defaultSendBuffer     = 64
	defaultMaxMessageSize = 64 * 1024
	defaultPongWait       = 60 * time.Second
	defaultWriteWait      = 10 * time.Second
)

type Config struct {
	// AllowedOrigins lists the browser origins allowed to connect. Empty or
	// "*" allows all.
	AllowedOrigins []string
	SendBuffer     int
	MaxMessageSize int64
	PongWait       time.Duration
	WriteWait      time.Duration
}

func (c Config) withDefaults() Config {
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.PongWait <= 0 {
		c.PongWait = defaultPongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = defaultWriteWait
	}
	return c
}

// pingInterval must stay below PongWait so an idle peer is probed before its
// read deadline passes.
func (c Config) pingInterval() time.Duration {
	return c.PongWait * 9 / 10
}

// Handler upgrades HTTP requests and runs the per-connection protocol loop
// against the lobby.
type Handler struct {
	lobby    *lobby.Service
	hub      *Hub
	cfg      Config
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

func NewHandler(svc *lobby.Service, hub *Hub, cfg Config, log *logrus.Entry) *Handler {
	cfg = cfg.withDefaults()
	h := &Handler{
		lobby: svc,
		hub:   hub,
		cfg:   cfg,
		log:   log.WithField("component", "websocket"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.log.WithField("origin", origin).Warn("rejected websocket origin")
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("upgrade failed")
		return
	}

	cl := newClient(conn, h.cfg.SendBuffer, h.log)
	if !h.hub.register(cl) {
		cl.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}
	cl.log.WithField("remote_addr", r.RemoteAddr).Info("client connected")

	go cl.writePump(h.cfg.pingInterval(), h.cfg.WriteWait)
	go h.readLoop(cl)
}

// readLoop owns the connection's Session. Lobby errors go back to the client
// as error events; any other error means the transport is gone.
func (h *Handler) readLoop(cl *Client) {
	var session lobby.Session
	defer func() {
		if r := recover(); r != nil {
			cl.log.WithField("panic", r).Error("read loop panicked")
		}
		h.lobby.Disconnect(cl, session)
		h.hub.unregister(cl)
		cl.closeSend()
		_ = cl.conn.Close()
		cl.log.WithFields(logrus.Fields{
			"room_id": session.RoomID,
			"user":    session.User,
		}).Info("client disconnected")
	}()

	cl.prepareRead(h.cfg.MaxMessageSize, h.cfg.PongWait)

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			h.logReadError(cl, err)
			return
		}

		next, err := h.dispatch(cl, session, data)
		session = next
		if err == nil {
			continue
		}
		if lobby.CodeOf(err) == "" {
			cl.log.WithError(err).Debug("transport gone while handling frame")
			return
		}
		if sendErr := h.lobby.SendError(cl, err); sendErr != nil {
			return
		}
	}
}

func (h *Handler) logReadError(cl *Client, err error) {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		cl.log.Debug("client closed connection")
	case errors.Is(err, websocket.ErrReadLimit):
		cl.log.WithField("limit", h.cfg.MaxMessageSize).Warn("frame exceeded read limit")
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		cl.log.Debug("connection dropped")
	default:
		cl.log.WithError(err).Debug("read failed")
	}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return lobby.BadRequest("malformed payload")
	}
	return nil
}

// dispatch decodes one frame and routes it to the lobby.
func (h *Handler) dispatch(cl *Client, session lobby.Session, data []byte) (lobby.Session, error) {
	var env dto.InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		wsInbound.WithLabelValues("invalid").Inc()
		return session, lobby.BadRequest("message must be a JSON object with an action")
	}

	switch env.Action {
	case dto.ActionCreateRoom:
		var req dto.CreateRoomRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return h.lobby.CreateRoom(cl, session, req)

	case dto.ActionRequestJoinToken:
		var req dto.RequestJoinTokenRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return session, h.lobby.RequestJoinToken(cl, req)

	case dto.ActionJoinRoom:
		var req dto.JoinRoomRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return h.lobby.JoinRoom(cl, session, req.Token)

	case dto.ActionLeaveRoom:
		var req dto.LeaveRoomRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return h.lobby.LeaveRoom(cl, session, req)

	case dto.ActionSendMessage:
		var req dto.SendMessageRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return session, h.lobby.SendMessage(cl, session, req)

	case dto.ActionGetRoomList:
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return session, h.lobby.SendRoomList(cl)

	case dto.ActionGetRoomInfo:
		var req dto.GetRoomInfoRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return session, h.lobby.SendRoomInfo(cl, req.RoomID)

	case dto.ActionGetRoomByToken:
		var req dto.GetRoomByTokenRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		return session, h.lobby.SendRoomByToken(cl, req.Token)

	case dto.ActionDestroyRoom:
		var req dto.DestroyRoomRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return session, err
		}
		wsInbound.WithLabelValues(string(env.Action)).Inc()
		h.lobby.DestroyRoom(req.RoomID)
		if session.RoomID == req.RoomID {
			return lobby.Session{}, nil
		}
		return session, nil

	default:
		wsInbound.WithLabelValues("unknown").Inc()
		return session, lobby.BadRequest(fmt.Sprintf("unknown action %q", env.Action))
	}
}
