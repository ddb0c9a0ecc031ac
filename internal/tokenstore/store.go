// Package tokenstore is the single owner of session credentials.
//
// Nothing else reads or writes the durable session entries: the HTTP client, the
// auth API and the guard all go through Store. Reads come from an in-memory mirror
// and never block on storage; writes go to storage first and then to the mirror.
package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/models"
)

// Fixed names of durable entries
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

var sessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Durable storage of session entries
type Storage interface {
	// Load all known entries. Missing storage is not an error: return empty map
	Load(ctx context.Context) (map[string]string, error)

	// Insert or replace given entries, all or nothing
	Put(ctx context.Context, entries map[string]string) error

	// Remove given entries, all or nothing. Removing missing keys is not an error
	Delete(ctx context.Context, keys ...string) error
}

type Store struct {
	// Serializes mutations: storage write, mirror update and subscriber fan-out
	writeMu sync.Mutex

	mu      sync.RWMutex
	session models.Session

	storage Storage
	logger  logger.Logger

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(models.Session)
}

// Open store and load previously persisted session
// Stored user that could not be decoded invalidates the whole session
func Open(ctx context.Context, storage Storage, l logger.Logger) (*Store, error) {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	s := &Store{
		storage: storage,
		logger:  l,
		subs:    make(map[int]func(models.Session)),
	}

	entries, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error while loading session. Err: %w", err)
	}

	session := models.Session{
		AccessToken:  entries[KeyAccessToken],
		RefreshToken: entries[KeyRefreshToken],
	}
	if raw := entries[KeyUser]; raw != "" {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			l.Warn("Stored user is corrupted, dropping session", "error", err)
			if err := storage.Delete(ctx, sessionKeys...); err != nil {
				return nil, fmt.Errorf("error while dropping corrupted session. Err: %w", err)
			}
			return s, nil
		}
		session.User = &u
	}

	s.session = session
	return s, nil
}

// Persist all three fields of a new session
func (s *Store) SetSession(ctx context.Context, user models.User, access string, refresh string) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("error while encoding user. Err: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = s.storage.Put(ctx, map[string]string{
		KeyAccessToken:  access,
		KeyRefreshToken: refresh,
		KeyUser:         string(raw),
	})
	if err != nil {
		return fmt.Errorf("error while saving session. Err: %w", err)
	}

	s.commit(func(cur *models.Session) {
		*cur = models.Session{AccessToken: access, RefreshToken: refresh, User: &user}
	})
	s.logger.Debug("Session stored", "user_id", user.ID, "role", user.Role)
	return nil
}

// Replace tokens after a successful refresh of usedRefresh
// Empty refresh keeps the stored one: not every backend rotates refresh tokens.
// Returns apperrors.ErrSessionChanged and writes nothing if the session no longer holds usedRefresh
func (s *Store) UpdateTokens(ctx context.Context, usedRefresh string, access string, refresh string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if current := s.RefreshToken(); usedRefresh == "" || current != usedRefresh {
		return apperrors.ErrSessionChanged
	}

	entries := map[string]string{KeyAccessToken: access}
	if refresh != "" {
		entries[KeyRefreshToken] = refresh
	}

	if err := s.storage.Put(ctx, entries); err != nil {
		return fmt.Errorf("error while saving tokens. Err: %w", err)
	}

	s.commit(func(cur *models.Session) {
		cur.AccessToken = access
		if refresh != "" {
			cur.RefreshToken = refresh
		}
	})
	return nil
}

// Replace stored user after an explicit profile update
func (s *Store) UpdateUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("error while encoding user. Err: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Put(ctx, map[string]string{KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("error while saving user. Err: %w", err)
	}

	s.commit(func(cur *models.Session) {
		cur.User = &user
	})
	return nil
}

// Remove all three fields. Safe to call on empty store
func (s *Store) ClearSession(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("error while clearing session. Err: %w", err)
	}

	s.commit(func(cur *models.Session) {
		*cur = models.Session{}
	})
	s.logger.Debug("Session cleared")
	return nil
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

// Copy of the current user or nil
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.session.User)
}

func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.session)
}

// Subscribe fn to every session mutation
// fn is called synchronously by the mutating goroutine, in mutation order.
// It must not call back into mutating methods
func (s *Store) Subscribe(fn func(models.Session)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Must be called with writeMu held
func (s *Store) commit(mutate func(cur *models.Session)) {
	s.mu.Lock()
	mutate(&s.session)
	current := snapshot(s.session)
	s.mu.Unlock()

	s.subMu.Lock()
	fns := make([]func(models.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}

func snapshot(s models.Session) models.Session {
	s.User = copyUser(s.User)
	return s
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
