package lobby

import "time"

type TokenRole string

const (
	TokenRoleCreator TokenRole = "creator"
	TokenRoleJoiner  TokenRole = "joiner"
)

type joinToken struct {
	roomID   string
	user     string
	role     TokenRole
	used     bool
	issuedAt time.Time
}

func (t *joinToken) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.issuedAt) > ttl
}

// issueTokenLocked mints a token bound to (roomID, user, role).
func (s *Service) issueTokenLocked(roomID, user string, role TokenRole) (string, error) {
	for {
		token, err := s.newToken()
		if err != nil {
			return "", newError(ErrorCodeInternal, "could not issue token", err)
		}
		if _, taken := s.tokens[token]; taken {
			continue
		}
		s.tokens[token] = &joinToken{
			roomID:   roomID,
			user:     user,
			role:     role,
			issuedAt: s.now(),
		}
		tokensIssued.WithLabelValues(string(role)).Inc()
		return token, nil
	}
}

// lookupTokenLocked returns the token record and its live room without
// consuming it.
func (s *Service) lookupTokenLocked(token string) (*joinToken, *room, error) {
	if token == "" {
		return nil, nil, ErrMissingToken
	}
	record, ok := s.tokens[token]
	if !ok || record.used || record.expired(s.now(), s.cfg.TokenTTL) {
		return nil, nil, ErrTokenInvalid
	}
	r, ok := s.rooms[record.roomID]
	if !ok {
		return nil, nil, ErrTokenInvalid
	}
	return record, r, nil
}

// sweepTokensLocked drops used, expired and orphaned tokens.
func (s *Service) sweepTokensLocked() int {
	now := s.now()
	dropped := 0
	for token, record := range s.tokens {
		_, roomAlive := s.rooms[record.roomID]
		if record.used || !roomAlive || record.expired(now, s.cfg.TokenTTL) {
			delete(s.tokens, token)
			dropped++
		}
	}
	return dropped
}

func (s *Service) dropRoomTokensLocked(roomID string) {
	for token, record := range s.tokens {
		if record.roomID == roomID {
			delete(s.tokens, token)
		}
	}
}
