package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrEmptyToken   = errors.New("token string is empty")
	ErrUnknownRole  = errors.New("invalid role specified")
	ErrRoleMismatch = errors.New("invalid role character in token")
)

// Issuer signs and verifies HS256 tokens. Every token carries a trailing
// role character so a token minted for one role never parses as another.
type Issuer struct {
	secrets map[Role][]byte
	ttl     time.Duration
	now     func() time.Time
}

func NewIssuer(adminSecret string) *Issuer {
	return NewIssuerWithClock(adminSecret, DefaultTokenTTL, time.Now)
}

func NewIssuerWithClock(adminSecret string, ttl time.Duration, now func() time.Time) *Issuer {
	secrets := map[Role][]byte{}
	if adminSecret != "" {
		secrets[RoleAdmin] = []byte(adminSecret)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secrets: secrets, ttl: ttl, now: now}
}

func roleChar(role Role) string {
	switch role {
	case RoleAdmin:
		return "a"
	}
	return ""
}

func (i *Issuer) CreateToken(subject string, role Role) (TokenResponse, error) {
	secret, ok := i.secrets[role]
	if !ok {
		return TokenResponse{}, ErrUnknownRole
	}

	expiresAt := i.now().Add(i.ttl).Unix()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": i.now().Unix(),
		"exp": expiresAt,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return TokenResponse{
		AccessToken: signed + roleChar(role),
		ExpiresAt:   expiresAt,
	}, nil
}

// ParseToken verifies the signature, the role character and expiry.
func (i *Issuer) ParseToken(tokenString string, role Role) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, ErrEmptyToken
	}
	secret, ok := i.secrets[role]
	if !ok {
		return nil, ErrUnknownRole
	}

	suffix := roleChar(role)
	if tokenString[len(tokenString)-len(suffix):] != suffix {
		return nil, ErrRoleMismatch
	}
	tokenString = tokenString[:len(tokenString)-len(suffix)]

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims of unauthorized type")
	}

	exp, ok := claims["exp"].(float64)
	if !ok || i.now().Unix() > int64(exp) {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}
