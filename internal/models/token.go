package models

import (
	"time"

	"github.com/google/uuid"
)

// Server side record of a refresh token. Single use: spent on refresh or logout
type RefreshToken struct {
	ID        uuid.UUID
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil if token not used
}

func (t RefreshToken) Used() bool {
	return t.UsedAt != nil
}

func (t RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// Token is good for one more refresh
func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Used() && !t.Expired(now)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Access and refresh token issued together on register, login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Wire shape of a pair: {"access": ..., "refresh": ...}
type TokenValues struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (p TokenPair) Values() TokenValues {
	return TokenValues{Access: p.Access.Value, Refresh: p.Refresh.Value}
}
