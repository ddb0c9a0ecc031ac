// Package storagetest holds behaviour checks every tokenstore.Storage must pass
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sims/internal/tokenstore"
)

// Run checks storage semantics against fresh storages produced by newStorage
func Run(t *testing.T, newStorage func(t *testing.T) tokenstore.Storage) {
	t.Helper()

	t.Run("load empty", func(t *testing.T) {
		s := newStorage(t)

		entries, err := s.Load(t.Context())

		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("put then load", func(t *testing.T) {
		s := newStorage(t)

		err := s.Put(t.Context(), map[string]string{"access_token": "a1", "refresh_token": "r1"})
		require.NoError(t, err)

		entries, err := s.Load(t.Context())
		require.NoError(t, err)
		require.Equal(t, map[string]string{"access_token": "a1", "refresh_token": "r1"}, entries)
	})

	t.Run("put overwrites only given keys", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Put(t.Context(), map[string]string{"access_token": "a1", "refresh_token": "r1"}))

		err := s.Put(t.Context(), map[string]string{"access_token": "a2"})
		require.NoError(t, err)

		entries, err := s.Load(t.Context())
		require.NoError(t, err)
		require.Equal(t, "a2", entries["access_token"], "last write must win")
		require.Equal(t, "r1", entries["refresh_token"], "untouched key must survive")
	})

	t.Run("delete given keys", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Put(t.Context(), map[string]string{"access_token": "a1", "refresh_token": "r1", "user": "{}"}))

		err := s.Delete(t.Context(), "access_token", "refresh_token", "user")
		require.NoError(t, err)

		entries, err := s.Load(t.Context())
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("delete missing keys is fine", func(t *testing.T) {
		s := newStorage(t)

		err := s.Delete(t.Context(), "access_token", "user")

		require.NoError(t, err)
	})

	t.Run("values survive as is", func(t *testing.T) {
		s := newStorage(t)
		user := `{"id":1,"username":"pg: one","first_name":"Ünïcode"}`

		require.NoError(t, s.Put(t.Context(), map[string]string{"user": user}))

		entries, err := s.Load(t.Context())
		require.NoError(t, err)
		require.Equal(t, user, entries["user"])
	})
}
