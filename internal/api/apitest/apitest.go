// Package apitest wires a real apiclient.Client to a test backend
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sims/internal/apiclient"
	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/tokenstore"
)

const AccessToken = "test-access"

type Env struct {
	Client *apiclient.Client
	Store  *tokenstore.Store
	Server *httptest.Server
}

// New starts handler and returns a client logged in with role. Empty role means no session
func New(t *testing.T, role models.Role, handler http.Handler) *Env {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := tokenstore.Open(t.Context(), tokenstore.NewMemoryStorage(), nil)
	require.NoError(t, err)

	if role != "" {
		user := models.User{ID: 1, Username: string(role) + "1", Role: role}
		require.NoError(t, store.SetSession(t.Context(), user, AccessToken, "test-refresh"))
	}

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, store, nil, nil)
	require.NoError(t, err)

	return &Env{Client: client, Store: store, Server: srv}
}

// Respond with body as JSON. Called from handlers, so failures don't stop the test goroutine
func JSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if s, ok := body.(string); ok {
		_, err := w.Write([]byte(s))
		assert.NoError(t, err)
		return
	}
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

// Decode request body as JSON into map
func Body(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var body map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}
