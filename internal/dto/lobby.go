package dto

import "encoding/json"

type Action string

// Inbound actions.
const (
	ActionCreateRoom       Action = "createRoom"
	ActionRequestJoinToken Action = "requestJoinToken"
	ActionJoinRoom         Action = "joinRoom"
	ActionLeaveRoom        Action = "leaveRoom"
	ActionSendMessage      Action = "sendMessage"
	ActionGetRoomList      Action = "getRoomList"
	ActionGetRoomInfo      Action = "getRoomInfo"
	ActionGetRoomByToken   Action = "getRoomByToken"
	ActionDestroyRoom      Action = "destroyRoom"
)

// Outbound actions.
const (
	ActionRoomCreated Action = "roomCreated"
	ActionJoinToken   Action = "joinToken"
	ActionJoinedRoom  Action = "joinedRoom"
	ActionRoomUpdate  Action = "roomUpdate"
	ActionUserJoined  Action = "userJoined"
	ActionUserLeft    Action = "userLeft"
	ActionNewMessage  Action = "newMessage"
	ActionRoomList    Action = "roomList"
	ActionRoomInfo    Action = "roomInfo"
	ActionRoomClosed  Action = "roomClosed"
	ActionRoomTimeout Action = "roomTimeout"
	ActionError       Action = "error"
)

// InboundEnvelope is decoded in two steps: the action first, then Payload
// into the struct that belongs to it.
type InboundEnvelope struct {
	Action  Action          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type OutboundEnvelope struct {
	Action  Action      `json:"action"`
	Payload interface{} `json:"payload,omitempty"`
}

type CreateRoomRequest struct {
	RoomID   string `json:"roomId,omitempty"`
	Creator  string `json:"creator"`
	Password string `json:"password,omitempty"`
}

type RequestJoinTokenRequest struct {
	RoomID   string `json:"roomId"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
}

type JoinRoomRequest struct {
	Token string `json:"token"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
	User   string `json:"user"`
}

type SendMessageRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName,omitempty"`
	Message    string `json:"message"`
}

type GetRoomInfoRequest struct {
	RoomID string `json:"roomId"`
}

type GetRoomByTokenRequest struct {
	Token string `json:"token"`
}

type DestroyRoomRequest struct {
	RoomID string `json:"roomId"`
}

type TokenPayload struct {
	Token  string `json:"token"`
	RoomID string `json:"roomId,omitempty"`
}

type ChatMessage struct {
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	RoomID     string `json:"roomId"`
	Timestamp  string `json:"timestamp"`
}

// RoomSummary is the sanitized room view used in listings.
type RoomSummary struct {
	ID         string   `json:"id"`
	Creator    string   `json:"creator"`
	Players    []string `json:"players"`
	Spectators []string `json:"spectators"`
	Password   string   `json:"password"`
	RoomStatus string   `json:"roomStatus"`
	CreatedAt  int64    `json:"createdAt"`
}

// RoomDetail is a RoomSummary plus the chat history.
type RoomDetail struct {
	RoomSummary
	Messages []ChatMessage `json:"messages"`
}

type RoomUpdatePayload struct {
	Players          []string `json:"players"`
	Spectators       []string `json:"spectators"`
	RoomStatus       string   `json:"roomStatus"`
	DisconnectedUser string   `json:"disconnectedUser,omitempty"`
}

type UserEventPayload struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

type RoomClosedPayload struct {
	RoomID string `json:"roomId"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenRoomInfo answers "which room does this token open, and for whom".
type TokenRoomInfo struct {
	RoomID     string        `json:"roomId"`
	Creator    string        `json:"creator"`
	User       string        `json:"user"`
	UserType   string        `json:"userType"`
	Players    []string      `json:"players"`
	Spectators []string      `json:"spectators"`
	RoomStatus string        `json:"roomStatus"`
	Messages   []ChatMessage `json:"messages"`
}

type RoomListResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

// LifecycleEvent is published to the external event feed.
type LifecycleEvent struct {
	Type   Action `json:"type"`
	RoomID string `json:"roomId"`
	At     string `json:"at"`
}
