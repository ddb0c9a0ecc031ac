package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/tokenstore"
)

// Fake backend: /api/echo/ requires current access token, refresh endpoint issues new ones
type backend struct {
	mu      sync.Mutex
	access  string
	refresh string
	rotate  bool

	refreshDelay time.Duration
	refreshCalls atomic.Int32

	// When set, /api/echo/ holds the first gateSize requests until all of them arrived
	echoGate  chan struct{}
	gateSize  int32
	gateCount atomic.Int32

	echoBodies []string
	echoAuth   []string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		n := b.refreshCalls.Add(1)
		time.Sleep(b.refreshDelay)

		var req struct {
			Refresh string `json:"refresh"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()

		if req.Refresh == "" || req.Refresh != b.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Token is invalid or expired"}`))
			return
		}

		resp := map[string]string{}
		b.access = fmt.Sprintf("access-%d", n)
		resp["access"] = b.access
		if b.rotate {
			b.refresh = fmt.Sprintf("refresh-%d", n)
			resp["refresh"] = b.refresh
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/api/echo/", func(w http.ResponseWriter, r *http.Request) {
		if b.echoGate != nil {
			if b.gateCount.Add(1) == b.gateSize {
				close(b.echoGate)
			}
			<-b.echoGate
		}

		body, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		defer b.mu.Unlock()

		b.echoBodies = append(b.echoBodies, string(body))
		b.echoAuth = append(b.echoAuth, r.Header.Get("Authorization"))

		if r.Header.Get("Authorization") != "Bearer "+b.access {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": "Given token not valid"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"body":       string(body),
			"query":      r.URL.RawQuery,
			"request_id": r.Header.Get(HeaderRequestID),
		})
	})

	mux.HandleFunc("/api/always401/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "nope"}`))
	})

	mux.HandleFunc("/api/broken/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "boom", "code": 17}`))
	})

	mux.HandleFunc("/api/missing/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return mux
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Counts session clears that reached storage
type countingStorage struct {
	*tokenstore.MemoryStorage
	deletes atomic.Int32
}

func (c *countingStorage) Delete(ctx context.Context, keys ...string) error {
	c.deletes.Add(1)
	return c.MemoryStorage.Delete(ctx, keys...)
}

type env struct {
	backend   *backend
	server    *httptest.Server
	storage   *countingStorage
	store     *tokenstore.Store
	navigator *recordingNavigator
	client    *Client
}

func newEnv(t *testing.T, b *backend) *env {
	t.Helper()

	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	storage := &countingStorage{MemoryStorage: tokenstore.NewMemoryStorage()}
	store, err := tokenstore.Open(t.Context(), storage, logger.NewNoOpLogger())
	require.NoError(t, err)

	nav := &recordingNavigator{}
	client, err := New(Config{BaseURL: srv.URL}, store, nav, logger.NewNoOpLogger())
	require.NoError(t, err)

	return &env{backend: b, server: srv, storage: storage, store: store, navigator: nav, client: client}
}

func (e *env) login(t *testing.T, access string, refresh string) {
	t.Helper()
	err := e.store.SetSession(t.Context(), models.User{ID: 1, Username: "pg1", Role: models.RolePG}, access, refresh)
	require.NoError(t, err)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New(Config{BaseURL: "http://localhost:8000/"}, nil, nil, nil)

		require.NoError(t, err)
		require.Equal(t, "http://localhost:8000", c.BaseURL())
		require.Equal(t, defaultTimeout, c.timeout)
		require.Equal(t, defaultRefreshPath, c.refreshPath)
	})

	t.Run("invalid base url", func(t *testing.T) {
		for _, base := range []string{"", "localhost:8000", "/api"} {
			_, err := New(Config{BaseURL: base}, nil, nil, nil)
			require.Error(t, err, "base %q should be rejected", base)
		}
	})
}

func TestClient_Do(t *testing.T) {
	t.Run("bearer attached when token exists", func(t *testing.T) {
		e := newEnv(t, &backend{access: "a1", refresh: "r1"})
		e.login(t, "a1", "r1")

		var out map[string]string
		err := e.client.Get(t.Context(), "/api/echo/", url.Values{"q": {"x y"}}, &out)

		require.NoError(t, err)
		require.Equal(t, []string{"Bearer a1"}, e.backend.echoAuth)
		require.Equal(t, "q=x+y", out["query"])
		require.NotEmpty(t, out["request_id"])
		require.Zero(t, e.backend.refreshCalls.Load())
	})

	t.Run("no bearer without token", func(t *testing.T) {
		e := newEnv(t, &backend{})

		_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})

		require.ErrorIs(t, err, apperrors.ErrAuthExpired)
		require.Equal(t, []string{""}, e.backend.echoAuth)
	})

	t.Run("expired token refreshed and request replayed once", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1"})
		e.login(t, "stale", "r1")

		var out map[string]string
		err := e.client.Post(t.Context(), "/api/echo/", map[string]int{"x": 1}, &out)

		require.NoError(t, err)
		require.Equal(t, int32(1), e.backend.refreshCalls.Load())
		require.Equal(t, []string{"Bearer stale", "Bearer access-1"}, e.backend.echoAuth)
		require.Equal(t, []string{`{"x":1}`, `{"x":1}`}, e.backend.echoBodies, "retry must replay the same body")
		require.Equal(t, `{"x":1}`, out["body"])

		require.Equal(t, "access-1", e.store.AccessToken())
		require.Equal(t, "r1", e.store.RefreshToken(), "not rotated refresh token kept")
		require.Empty(t, e.navigator.Paths())
	})

	t.Run("rotated refresh token stored", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1", rotate: true})
		e.login(t, "stale", "r1")

		_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})

		require.NoError(t, err)
		require.Equal(t, "refresh-1", e.store.RefreshToken())
	})

	t.Run("401 after refresh is terminal", func(t *testing.T) {
		e := newEnv(t, &backend{refresh: "r1"})
		e.login(t, "stale", "r1")

		_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/always401/"})

		require.ErrorIs(t, err, apperrors.ErrAuthExpired)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, "nope", apiErr.Message)

		require.Equal(t, int32(1), e.backend.refreshCalls.Load(), "exactly one refresh per request")
		require.True(t, e.store.Session().Empty())
		require.Equal(t, int32(1), e.storage.deletes.Load(), "session cleared once")
		require.Equal(t, []string{"/login"}, e.navigator.Paths())
	})

	t.Run("401 without refresh token", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh"})
		e.login(t, "stale", "")

		_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})

		require.ErrorIs(t, err, apperrors.ErrAuthExpired)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Given token not valid", apiErr.Message, "original 401 returned")
		require.Zero(t, e.backend.refreshCalls.Load())
		require.True(t, e.store.Session().Empty())
		require.Equal(t, int32(1), e.storage.deletes.Load(), "session cleared once")
		require.Equal(t, []string{"/login"}, e.navigator.Paths())
	})

	t.Run("refresh rejected", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1"})
		e.login(t, "stale", "revoked")

		_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})

		require.ErrorIs(t, err, apperrors.ErrAuthRefreshFailed)
		require.NotErrorIs(t, err, apperrors.ErrAuthExpired)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, CodeAuthRefreshFailed, apiErr.Code)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.JSONEq(t, `{"detail": "Given token not valid"}`, string(apiErr.Payload), "payload of the original 401")

		var refreshErr *Error
		require.True(t, errors.As(apiErr.Err, &refreshErr), "refresh failure wrapped")
		require.Equal(t, "Token is invalid or expired", refreshErr.Message)

		require.Equal(t, int32(1), e.backend.refreshCalls.Load())
		require.Len(t, e.backend.echoAuth, 1, "original request not replayed")
		require.True(t, e.store.Session().Empty())
		require.Equal(t, int32(1), e.storage.deletes.Load(), "session cleared once")
		require.Equal(t, []string{"/login"}, e.navigator.Paths())
	})

	t.Run("refresh network failure", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1"})
		e.login(t, "stale", "r1")
		transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if strings.HasSuffix(r.URL.Path, defaultRefreshPath) {
				return nil, errors.New("connection reset")
			}
			return http.DefaultTransport.RoundTrip(r)
		})
		client, err := New(Config{BaseURL: e.server.URL, Transport: transport}, e.store, e.navigator, nil)
		require.NoError(t, err)

		_, err = client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})

		require.ErrorIs(t, err, apperrors.ErrAuthRefreshFailed)
		require.ErrorIs(t, err, apperrors.ErrNetworkFailure, "cause is visible through the chain")
		require.True(t, e.store.Session().Empty())
		require.Equal(t, []string{"/login"}, e.navigator.Paths())
	})

	t.Run("concurrent 401s share one refresh", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1", rotate: true, refreshDelay: 50 * time.Millisecond})
		e.login(t, "stale", "r1")

		const callers = 10
		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		require.Equal(t, int32(1), e.backend.refreshCalls.Load(), "rotated refresh token must be spent once")
		require.Equal(t, "access-1", e.store.AccessToken())
		require.Equal(t, "refresh-1", e.store.RefreshToken())
		require.Zero(t, e.storage.deletes.Load())
		require.Empty(t, e.navigator.Paths())
	})

	t.Run("concurrent 401s with rejected refresh end session once", func(t *testing.T) {
		const callers = 10
		e := newEnv(t, &backend{
			access:       "fresh",
			refresh:      "r1",
			refreshDelay: 200 * time.Millisecond,
			echoGate:     make(chan struct{}),
			gateSize:     callers,
		})
		e.login(t, "stale", "revoked")

		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.ErrorIs(t, err, apperrors.ErrAuthRefreshFailed)
		}
		require.Equal(t, int32(1), e.backend.refreshCalls.Load())
		require.Equal(t, int32(1), e.storage.deletes.Load(), "session cleared once")
		require.Equal(t, []string{"/login"}, e.navigator.Paths())
		require.Len(t, e.backend.echoAuth, callers, "no request replayed")
		require.True(t, e.store.Session().Empty())
	})

	t.Run("session cleared during refresh stays cleared", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1", rotate: true, refreshDelay: 300 * time.Millisecond})
		e.login(t, "stale", "r1")

		done := make(chan error, 1)
		go func() {
			_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})
			done <- err
		}()
		require.Eventually(t, func() bool { return e.backend.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
		require.NoError(t, e.store.ClearSession(t.Context()))

		err := <-done

		require.ErrorIs(t, err, apperrors.ErrAuthRefreshFailed)
		require.ErrorIs(t, err, apperrors.ErrSessionChanged)
		require.Len(t, e.backend.echoAuth, 1, "request not replayed with revived token")

		require.True(t, e.store.Session().Empty())
		entries, err := e.storage.Load(t.Context())
		require.NoError(t, err)
		require.Empty(t, entries, "no partial session left in storage")
		require.Equal(t, int32(1), e.storage.deletes.Load(), "only the logout cleared")
		require.Empty(t, e.navigator.Paths())
	})

	t.Run("new login during refresh is kept", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1", rotate: true, refreshDelay: 300 * time.Millisecond})
		e.login(t, "stale", "r1")

		done := make(chan error, 1)
		go func() {
			_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})
			done <- err
		}()
		require.Eventually(t, func() bool { return e.backend.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
		e.login(t, "b1", "s1")

		err := <-done

		require.ErrorIs(t, err, apperrors.ErrSessionChanged)
		require.Equal(t, "b1", e.store.AccessToken())
		require.Equal(t, "s1", e.store.RefreshToken())
		require.Zero(t, e.storage.deletes.Load())
		require.Empty(t, e.navigator.Paths())
	})

	t.Run("stale 401 after refresh skips exchange", func(t *testing.T) {
		e := newEnv(t, &backend{access: "fresh", refresh: "r1"})
		e.login(t, "fresh", "r1")

		// request failed with a token that is no longer current
		err := e.client.refresh(t.Context(), "older")

		require.NoError(t, err)
		require.Zero(t, e.backend.refreshCalls.Load())
	})

	t.Run("network failure", func(t *testing.T) {
		e := newEnv(t, &backend{access: "a1", refresh: "r1"})
		e.login(t, "a1", "r1")
		e.server.Close()

		_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: "/api/echo/"})

		require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Zero(t, apiErr.StatusCode)
		require.Equal(t, "a1", e.store.AccessToken(), "session untouched")
		require.Empty(t, e.navigator.Paths())
	})

	t.Run("non 401 errors", func(t *testing.T) {
		tests := []struct {
			name    string
			path    string
			status  int
			message string
		}{
			{"message from payload", "/api/broken/", http.StatusInternalServerError, "boom"},
			{"message from status", "/api/missing/", http.StatusNotFound, "Not Found"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e := newEnv(t, &backend{access: "a1", refresh: "r1"})
				e.login(t, "a1", "r1")

				_, err := e.client.Do(t.Context(), Request{Method: http.MethodGet, Path: tt.path})

				require.ErrorIs(t, err, apperrors.ErrRequestFailed)
				var apiErr *Error
				require.ErrorAs(t, err, &apiErr)
				require.Equal(t, tt.status, apiErr.StatusCode)
				require.Equal(t, tt.message, apiErr.Message)
				require.Zero(t, e.backend.refreshCalls.Load())
				require.Equal(t, "a1", e.store.AccessToken())
			})
		}
	})

	t.Run("payload decoded from error", func(t *testing.T) {
		e := newEnv(t, &backend{access: "a1"})
		e.login(t, "a1", "")

		err := e.client.Get(t.Context(), "/api/broken/", nil, nil)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		var payload struct {
			Code int `json:"code"`
		}
		require.NoError(t, apiErr.DecodePayload(&payload))
		require.Equal(t, 17, payload.Code)
	})
}

func TestClient_Multipart(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer a1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(file)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"import_type": r.FormValue("import_type"),
			"filename":    header.Filename,
			"content":     string(content),
		})
	}))
	t.Cleanup(srv.Close)

	store, err := tokenstore.Open(t.Context(), tokenstore.NewMemoryStorage(), nil)
	require.NoError(t, err)
	require.NoError(t, store.SetSession(t.Context(), models.User{ID: 1, Role: models.RoleAdmin}, "a1", "r1"))
	client, err := New(Config{BaseURL: srv.URL}, store, nil, nil)
	require.NoError(t, err)

	var out map[string]string
	err = client.Multipart(t.Context(), "/api/bulk/import/",
		map[string]string{"import_type": "trainees"},
		File{Name: "pgs.csv", Content: strings.NewReader("username,email\npg1,pg1@example.com\n")},
		&out,
	)

	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, "trainees", out["import_type"])
	require.Equal(t, "pgs.csv", out["filename"])
	require.Equal(t, "username,email\npg1,pg1@example.com\n", out["content"])
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing/" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "Not found."}`))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 " + r.Header.Get("Accept")))
	}))
	t.Cleanup(srv.Close)

	store, err := tokenstore.Open(t.Context(), tokenstore.NewMemoryStorage(), nil)
	require.NoError(t, err)
	require.NoError(t, store.SetSession(t.Context(), models.User{ID: 1, Role: models.RolePG}, "a1", "r1"))
	client, err := New(Config{BaseURL: srv.URL}, store, nil, nil)
	require.NoError(t, err)

	t.Run("body copied as is", func(t *testing.T) {
		var buf bytes.Buffer

		contentType, err := client.Download(t.Context(), "/file/", &buf)

		require.NoError(t, err)
		require.Equal(t, "application/pdf", contentType)
		require.Equal(t, "%PDF-1.4 */*", buf.String(), "any content type accepted")
	})

	t.Run("error response not written", func(t *testing.T) {
		var buf bytes.Buffer

		_, err := client.Download(t.Context(), "/missing/", &buf)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		require.Zero(t, buf.Len())
	})
}
