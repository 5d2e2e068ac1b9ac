package lobby

import (
	"time"

	"lobby-backend/internal/dto"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

const (
	MaxPlayers   = 2
	MaxOccupants = 12

	redactedPassword = "***"
)

type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

type Message struct {
	Author    string
	Text      string
	RoomID    string
	Timestamp time.Time
}

func (m Message) toDTO() dto.ChatMessage {
	return dto.ChatMessage{
		PlayerName: m.Author,
		Message:    m.Text,
		RoomID:     m.RoomID,
		Timestamp:  m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// room is only ever touched while Service.mu is held.
type room struct {
	id           string
	gen          uint64
	creator      string
	players      []string
	spectators   []string
	password     string
	status       Status
	messages     []Message
	conns        map[Conn]struct{}
	createdAt    time.Time
	lastActivity time.Time
}

func newRoom(id, creator, password string, now time.Time) *room {
	return &room{
		id:           id,
		creator:      creator,
		players:      []string{creator},
		spectators:   []string{},
		password:     password,
		status:       StatusWaiting,
		messages:     []Message{},
		conns:        make(map[Conn]struct{}),
		createdAt:    now,
		lastActivity: now,
	}
}

func (r *room) touch(now time.Time) {
	r.lastActivity = now
}

func (r *room) occupancy() int {
	return len(r.players) + len(r.spectators)
}

func (r *room) empty() bool {
	return r.occupancy() == 0
}

func (r *room) isMember(user string) bool {
	return contains(r.players, user) || contains(r.spectators, user)
}

func (r *room) hasRoomFor(user string) bool {
	return r.isMember(user) || len(r.players) < MaxPlayers || r.occupancy() < MaxOccupants
}

// join seats user as a player while a seat is free, otherwise as a
// spectator. Filling the second seat moves the room to playing; a spectator
// joining never changes status.
func (r *room) join(user string, now time.Time) (Role, error) {
	switch {
	case len(r.players) < MaxPlayers:
		r.players = append(r.players, user)
		if len(r.players) == MaxPlayers {
			r.status = StatusPlaying
		}
		r.touch(now)
		return RolePlayer, nil
	case r.occupancy() < MaxOccupants:
		r.spectators = append(r.spectators, user)
		r.touch(now)
		return RoleSpectator, nil
	default:
		return "", ErrRoomFull
	}
}

// leave reports whether user was a member.
func (r *room) leave(user string, now time.Time) bool {
	players := remove(r.players, user)
	spectators := remove(r.spectators, user)
	removed := len(players) != len(r.players) || len(spectators) != len(r.spectators)
	r.players = players
	r.spectators = spectators
	if !removed {
		return false
	}
	if len(r.players) < MaxPlayers {
		r.status = StatusWaiting
	}
	r.touch(now)
	return true
}

func (r *room) recordMessage(author, text string, now time.Time) Message {
	msg := Message{
		Author:    author,
		Text:      text,
		RoomID:    r.id,
		Timestamp: now,
	}
	r.messages = append(r.messages, msg)
	r.touch(now)
	return msg
}

func (r *room) subscribe(c Conn) {
	r.conns[c] = struct{}{}
}

func (r *room) unsubscribe(c Conn) {
	delete(r.conns, c)
}

func (r *room) summary(privileged bool) dto.RoomSummary {
	password := r.password
	if password != "" && !privileged {
		password = redactedPassword
	}
	return dto.RoomSummary{
		ID:         r.id,
		Creator:    r.creator,
		Players:    clone(r.players),
		Spectators: clone(r.spectators),
		Password:   password,
		RoomStatus: string(r.status),
		CreatedAt:  r.createdAt.Unix(),
	}
}

func (r *room) detail() dto.RoomDetail {
	return dto.RoomDetail{
		RoomSummary: r.summary(false),
		Messages:    r.messageLog(),
	}
}

func (r *room) messageLog() []dto.ChatMessage {
	out := make([]dto.ChatMessage, 0, len(r.messages))
	for _, m := range r.messages {
		out = append(out, m.toDTO())
	}
	return out
}

func (r *room) update(disconnected string) dto.RoomUpdatePayload {
	return dto.RoomUpdatePayload{
		Players:          clone(r.players),
		Spectators:       clone(r.spectators),
		RoomStatus:       string(r.status),
		DisconnectedUser: disconnected,
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
