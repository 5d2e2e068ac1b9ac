package jwt

import "time"

type Role int

const (
	RoleAdmin Role = iota
)

const DefaultTokenTTL = 12 * time.Hour

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}
