package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/sims/internal/handlers/middleware"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/repository/postgres"
	"github.com/nkiryanov/sims/internal/service/auth"
	"github.com/nkiryanov/sims/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/sims/internal/service/user"
	"github.com/nkiryanov/sims/internal/testutil"
)

// Run http server with the router in transaction (one connection cause one transaction)
func serveWithTx(dbpool *pgxpool.Pool, t *testing.T, accessTTL time.Duration, fn func(srvURL string, as *auth.AuthService)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		l := logger.NewNoOpLogger()

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret", AccessTTL: accessTTL}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error")
		us := user.NewService(storage.Account())

		router := NewRouter(
			NewAuth(as, us, l),
			NewUser(us, l),
			middleware.NewAuth(as).Auth,
			middleware.LoggerMiddleware(l),
		)

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, as)
	})
}

// Send JSON request and return status and decoded body
func call(t *testing.T, method string, url string, access string, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoErrorf(t, json.Unmarshal(raw, &decoded), "body is not json object: %s", raw)
	return resp.StatusCode, decoded
}
