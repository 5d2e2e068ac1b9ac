package lobby

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"lobby-backend/internal/dto"
	"lobby-backend/internal/logging"
	"lobby-backend/internal/queue"
	"lobby-backend/utils"

	"github.com/sirupsen/logrus"
)

const (
	DefaultIdleTimeout   = 120 * time.Second
	DefaultSweepInterval = 10 * time.Second
	DefaultTokenTTL      = 60 * time.Second

	unknownAuthor      = "unknown user"
	maxRoomIDAttempts  = 1000
	backgroundDeadline = 10 * time.Second
)

type Config struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	TokenTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		IdleTimeout:   DefaultIdleTimeout,
		SweepInterval: DefaultSweepInterval,
		TokenTTL:      DefaultTokenTTL,
	}
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	return c
}

// JobQueue hands work to the background worker pool without blocking.
type JobQueue interface {
	TryEnqueueJob(job queue.Job) bool
}

// Publisher forwards room lifecycle events to an external feed.
type Publisher interface {
	Publish(ctx context.Context, event dto.LifecycleEvent) error
}

type Options struct {
	Config     Config
	Logger     *logrus.Entry
	Repository Repository
	Publisher  Publisher
	Jobs       JobQueue
	Now        func() time.Time
	NewRoomID  func() string
	NewToken   func() (string, error)
}

// Session is what a connection knows about itself: the room it last joined
// and the nickname it joined as. The zero value means "not in a room".
// A session outlives its room when the room is closed under it; gen ties it
// to the room it was issued for, so a later room reusing the id is not
// affected.
type Session struct {
	RoomID string
	User   string
	gen    uint64
}

func (s Session) Joined() bool {
	return s.RoomID != ""
}

// Service owns every live room and every outstanding join token. All
// mutations, and the enqueueing of the events they produce, happen under mu.
type Service struct {
	mu      sync.Mutex
	rooms   map[string]*room
	tokens  map[string]*joinToken
	lastGen uint64

	cfg       Config
	now       func() time.Time
	newRoomID func() string
	newToken  func() (string, error)
	log       *logrus.Entry

	repo   Repository
	events Publisher
	jobs   JobQueue
}

func New(opts Options) *Service {
	s := &Service{
		rooms:     make(map[string]*room),
		tokens:    make(map[string]*joinToken),
		cfg:       opts.Config.withDefaults(),
		now:       opts.Now,
		newRoomID: opts.NewRoomID,
		newToken:  opts.NewToken,
		log:       opts.Logger,
		repo:      opts.Repository,
		events:    opts.Publisher,
		jobs:      opts.Jobs,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newRoomID == nil {
		s.newRoomID = randomRoomID
	}
	if s.newToken == nil {
		s.newToken = utils.CreateToken
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s
}

func (s *Service) Config() Config {
	return s.cfg
}

func randomRoomID() string {
	return fmt.Sprintf("%06d", rand.IntN(1_000_000))
}

func (s *Service) allocateRoomIDLocked() (string, error) {
	for i := 0; i < maxRoomIDAttempts; i++ {
		id := s.newRoomID()
		if _, taken := s.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", newError(ErrorCodeInternal, "no free room id", nil)
}

// CreateRoom opens a room with the creator as its only player and hands the
// creator a token to redeem with JoinRoom. The connection is subscribed to
// the new room straight away. A connection already sitting in another room
// leaves it first.
func (s *Service) CreateRoom(conn Conn, current Session, req dto.CreateRoomRequest) (Session, error) {
	if err := ValidateNickname(req.Creator); err != nil {
		return current, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roomID := req.RoomID
	if roomID != "" {
		if _, exists := s.rooms[roomID]; exists {
			return current, ErrRoomExists
		}
	} else {
		id, err := s.allocateRoomIDLocked()
		if err != nil {
			return current, err
		}
		roomID = id
	}

	token, err := s.issueTokenLocked(roomID, req.Creator, TokenRoleCreator)
	if err != nil {
		return current, err
	}

	if current.Joined() {
		s.departLocked(conn, current, false)
	}

	now := s.now()
	r := newRoom(roomID, req.Creator, req.Password, now)
	s.lastGen++
	r.gen = s.lastGen
	r.subscribe(conn)
	s.rooms[roomID] = r
	roomsActive.Set(float64(len(s.rooms)))

	s.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"creator": req.Creator,
		"conn_id": conn.ID(),
		"private": req.Password != "",
	}).Info("room created")

	s.saveRoomLocked(r)
	s.publishLocked(dto.ActionRoomCreated, roomID)

	next := Session{RoomID: roomID, User: req.Creator, gen: r.gen}
	err = s.sendTo(conn, dto.ActionRoomCreated, dto.TokenPayload{Token: token, RoomID: roomID})
	return next, err
}

// RequestJoinToken checks that user may enter the room and sends back a
// joiner token. Membership is not touched until the token is redeemed.
func (s *Service) RequestJoinToken(conn Conn, req dto.RequestJoinTokenRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[req.RoomID]
	if !ok {
		return ErrRoomNotFound
	}
	if err := ValidateNickname(req.User); err != nil {
		return err
	}
	if r.isMember(req.User) {
		return ErrAlreadyMember
	}
	if r.password != "" && subtle.ConstantTimeCompare([]byte(r.password), []byte(req.Password)) != 1 {
		return ErrWrongPassword
	}

	token, err := s.issueTokenLocked(r.id, req.User, TokenRoleJoiner)
	if err != nil {
		return err
	}
	return s.sendTo(conn, dto.ActionJoinToken, dto.TokenPayload{Token: token, RoomID: r.id})
}

// JoinRoom redeems a token. Validation and consumption happen in the same
// critical section, so of two concurrent redemptions exactly one succeeds.
// A full room rejects the join before the token is consumed.
func (s *Service) JoinRoom(conn Conn, current Session, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, r, err := s.lookupTokenLocked(token)
	if err != nil {
		return current, err
	}

	member := r.isMember(record.user)
	if !member && !r.hasRoomFor(record.user) {
		return current, ErrRoomFull
	}
	record.used = true
	tokensRedeemed.WithLabelValues(string(record.role)).Inc()

	now := s.now()
	role := RolePlayer
	if member {
		r.touch(now)
	} else {
		role, err = r.join(record.user, now)
		if err != nil {
			return current, err
		}
	}
	r.subscribe(conn)

	next := Session{RoomID: r.id, User: record.user, gen: r.gen}
	entry := s.log.WithFields(logrus.Fields{
		"room_id": r.id,
		"user":    record.user,
		"conn_id": conn.ID(),
	})

	sendErr := s.sendTo(conn, dto.ActionJoinedRoom, r.detail())

	if !member {
		entry.WithField("role", role).Info("user joined room")
		s.broadcastLocked(r, dto.ActionRoomUpdate, r.update(""))
		s.broadcastLocked(r, dto.ActionUserJoined, dto.UserEventPayload{
			User:    record.user,
			Message: fmt.Sprintf("user %s joined the room", record.user),
		}, conn)
		s.saveMembersLocked(r)
	} else {
		entry.Debug("member re-attached to room")
	}

	if current.Joined() && current != next {
		s.departLocked(conn, current, false)
		if current.RoomID == r.id {
			r.subscribe(conn)
		}
	}

	return next, sendErr
}

// LeaveRoom removes user from the room and unsubscribes conn. Remaining
// members get roomUpdate then userLeft; a room left empty is destroyed.
// Naming another member of the connection's own room removes that member
// only: the connection stays seated and subscribed.
func (s *Service) LeaveRoom(conn Conn, current Session, req dto.LeaveRoomRequest) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[req.RoomID]
	if !ok {
		return current, ErrRoomNotFound
	}
	own := s.liveRoomLocked(current) == r
	user := req.User
	if user == "" && own {
		user = current.User
	}

	if own && user != current.User {
		if user != "" {
			s.removeMemberLocked(r, user, false)
		}
		return current, nil
	}

	s.departLocked(conn, Session{RoomID: r.id, User: user, gen: r.gen}, false)
	if own {
		return Session{}, nil
	}
	return current, nil
}

// Disconnect is the implicit leave run when a transport closes. With no
// known user only the connection is dropped from the room.
func (s *Service) Disconnect(conn Conn, current Session) {
	if !current.Joined() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"room_id": current.RoomID,
		"user":    current.User,
		"conn_id": conn.ID(),
	}).Info("connection closed")

	s.departLocked(conn, current, true)
}

// liveRoomLocked returns the room sess was issued for, or nil once that room
// has closed.
func (s *Service) liveRoomLocked(sess Session) *room {
	r, ok := s.rooms[sess.RoomID]
	if !ok || r.gen != sess.gen {
		return nil
	}
	return r
}

// departLocked unsubscribes conn and removes sess.User from the session's
// room. A session whose room has closed is ignored.
func (s *Service) departLocked(conn Conn, sess Session, disconnected bool) {
	r := s.liveRoomLocked(sess)
	if r == nil {
		return
	}
	r.unsubscribe(conn)
	if sess.User == "" {
		return
	}
	s.removeMemberLocked(r, sess.User, disconnected)
}

// removeMemberLocked drops user from r and tells the rest of the room. The
// disconnected flag tags the roomUpdate with the departing user.
func (s *Service) removeMemberLocked(r *room, user string, disconnected bool) {
	removed := r.leave(user, s.now())
	if r.empty() {
		s.destroyLocked(r, "room empty")
		return
	}
	if !removed {
		return
	}

	update := r.update("")
	if disconnected {
		update.DisconnectedUser = user
	}
	s.broadcastLocked(r, dto.ActionRoomUpdate, update)
	s.broadcastLocked(r, dto.ActionUserLeft, dto.UserEventPayload{
		User:    user,
		Message: fmt.Sprintf("user %s left the room", user),
	})
	s.saveMembersLocked(r)
}

// SendMessage appends to the room log and fans the message out to every
// subscribed connection. The author is the explicit playerName, else the
// session user.
func (s *Service) SendMessage(conn Conn, current Session, req dto.SendMessageRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[req.RoomID]
	if !ok {
		return ErrRoomNotFound
	}

	author := req.PlayerName
	if author == "" {
		author = current.User
	}
	if author == "" {
		author = unknownAuthor
	}

	msg := r.recordMessage(author, req.Message, s.now())
	s.broadcastLocked(r, dto.ActionNewMessage, msg.toDTO())
	return nil
}

// ListRooms returns sanitized views ordered by creation time. Passwords are
// masked unless privileged.
func (s *Service) ListRooms(privileged bool) []dto.RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.RoomSummary, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.summary(privileged))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) SendRoomList(conn Conn) error {
	return s.sendTo(conn, dto.ActionRoomList, s.ListRooms(false))
}

func (s *Service) GetRoom(roomID string) (dto.RoomDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return dto.RoomDetail{}, ErrRoomNotFound
	}
	return r.detail(), nil
}

func (s *Service) SendRoomInfo(conn Conn, roomID string) error {
	detail, err := s.GetRoom(roomID)
	if err != nil {
		return err
	}
	return s.sendTo(conn, dto.ActionRoomInfo, detail)
}

// RoomByToken describes the room a token opens without consuming it.
func (s *Service) RoomByToken(token string) (dto.TokenRoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, r, err := s.lookupTokenLocked(token)
	if err != nil {
		return dto.TokenRoomInfo{}, err
	}
	return dto.TokenRoomInfo{
		RoomID:     r.id,
		Creator:    r.creator,
		User:       record.user,
		UserType:   string(record.role),
		Players:    clone(r.players),
		Spectators: clone(r.spectators),
		RoomStatus: string(r.status),
		Messages:   r.messageLog(),
	}, nil
}

func (s *Service) SendRoomByToken(conn Conn, token string) error {
	info, err := s.RoomByToken(token)
	if err != nil {
		return err
	}
	return s.sendTo(conn, dto.ActionRoomInfo, info)
}

// DestroyRoom notifies every connection with roomClosed and removes the
// room. Destroying an unknown room is a no-op.
func (s *Service) DestroyRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[roomID]; ok {
		s.destroyLocked(r, "destroyed on request")
	}
}

func (s *Service) destroyLocked(r *room, reason string) {
	s.broadcastLocked(r, dto.ActionRoomClosed, dto.RoomClosedPayload{RoomID: r.id})
	s.removeLocked(r)
	s.log.WithFields(logrus.Fields{
		"room_id": r.id,
		"reason":  reason,
	}).Info("room closed")
	s.publishLocked(dto.ActionRoomClosed, r.id)
}

func (s *Service) removeLocked(r *room) {
	delete(s.rooms, r.id)
	s.dropRoomTokensLocked(r.id)
	roomsActive.Set(float64(len(s.rooms)))
	s.deleteRoomLocked(r.id)
}

// SweepIdle closes every room idle for longer than IdleTimeout, sending
// roomTimeout then roomClosed to its connections, and drops stale tokens.
// It returns the ids of the rooms it closed.
func (s *Service) SweepIdle() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var reaped []string
	for id, r := range s.rooms {
		if now.Sub(r.lastActivity) <= s.cfg.IdleTimeout {
			continue
		}
		s.broadcastLocked(r, dto.ActionRoomTimeout, dto.NoticePayload{
			Message: "room closed after a period of inactivity",
		})
		s.broadcastLocked(r, dto.ActionRoomClosed, dto.RoomClosedPayload{RoomID: id})
		s.removeLocked(r)
		s.publishLocked(dto.ActionRoomTimeout, id)
		roomsReaped.Inc()
		reaped = append(reaped, id)
		s.log.WithFields(logrus.Fields{
			"room_id":   id,
			"idle_for":  now.Sub(r.lastActivity).String(),
			"occupants": r.occupancy(),
		}).Info("idle room reaped")
	}

	if dropped := s.sweepTokensLocked(); dropped > 0 {
		s.log.WithField("tokens", dropped).Debug("stale tokens dropped")
	}
	sort.Strings(reaped)
	return reaped
}

// SendError reports a client-facing failure to conn.
func (s *Service) SendError(conn Conn, err error) error {
	payload := dto.ErrorPayload{Message: err.Error(), Code: string(CodeOf(err))}
	if payload.Code == "" {
		payload.Code = string(ErrorCodeInternal)
		payload.Message = "internal error"
	}
	return s.sendTo(conn, dto.ActionError, payload)
}

// background hands fn to the worker pool, keyed by room so one room's writes
// and events keep their order. Nothing here may block the caller, which
// usually holds mu.
func (s *Service) background(name, roomID string, fn func(ctx context.Context) error) {
	run := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundDeadline)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.WithError(err).WithField("job", name).Warn("background job failed")
			return err
		}
		return nil
	}

	if s.jobs == nil {
		go run()
		return
	}
	if !s.jobs.TryEnqueueJob(queue.Job{Fn: run, Key: roomID}) {
		backgroundDropped.WithLabelValues(name).Inc()
		s.log.WithField("job", name).Warn("job queue full, dropping background job")
	}
}

func (s *Service) publishLocked(kind dto.Action, roomID string) {
	if s.events == nil {
		return
	}
	event := dto.LifecycleEvent{
		Type:   kind,
		RoomID: roomID,
		At:     s.now().UTC().Format(time.RFC3339Nano),
	}
	s.background("publish_"+string(kind), roomID, func(ctx context.Context) error {
		return s.events.Publish(ctx, event)
	})
}
