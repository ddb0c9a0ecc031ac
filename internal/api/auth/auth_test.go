package auth

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/api/apitest"
	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/models"
)

const userJSON = `{"id": 7, "username": "sup1", "email": "sup1@example.com", "first_name": "Sam", "last_name": "Sup", "role": "supervisor"}`

func TestAPI_Login(t *testing.T) {
	t.Run("stores session", func(t *testing.T) {
		env := apitest.New(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, pathLogin, r.URL.Path)
			assert.Equal(t, map[string]any{"username": "sup1", "password": "secret"}, apitest.Body(t, r))
			apitest.JSON(t, w, http.StatusOK, `{"user": `+userJSON+`, "access": "a1", "refresh": "r1"}`)
		}))
		a := New(env.Client, env.Store, nil)

		user, err := a.Login(t.Context(), Credentials{Username: "sup1", Password: "secret"})

		require.NoError(t, err)
		require.Equal(t, models.RoleSupervisor, user.Role)
		require.Equal(t, "a1", env.Store.AccessToken())
		require.Equal(t, "r1", env.Store.RefreshToken())
		require.Equal(t, &user, env.Store.User())
	})

	t.Run("wrong credentials keep store empty", func(t *testing.T) {
		env := apitest.New(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apitest.JSON(t, w, http.StatusUnauthorized, `{"detail": "No active account found with the given credentials"}`)
		}))
		a := New(env.Client, env.Store, nil)

		_, err := a.Login(t.Context(), Credentials{Username: "sup1", Password: "wrong"})

		require.ErrorIs(t, err, apperrors.ErrAuthExpired)
		require.ErrorContains(t, err, "No active account found")
		require.True(t, env.Store.Session().Empty())
	})

	t.Run("empty credentials not sent", func(t *testing.T) {
		env := apitest.New(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent")
		}))
		a := New(env.Client, env.Store, nil)

		_, err := a.Login(t.Context(), Credentials{Username: "sup1"})

		require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
	})
}

func TestAPI_Register(t *testing.T) {
	valid := RegisterPayload{
		Username:  "pg2",
		Email:     "pg2@example.com",
		Password:  "long-enough",
		Password2: "long-enough",
		FirstName: "Pat",
		LastName:  "Gee",
		Role:      models.RolePG,
		Year:      "2",
	}

	t.Run("stores session from nested tokens", func(t *testing.T) {
		env := apitest.New(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := apitest.Body(t, r)
			assert.Equal(t, "pg", body["role"])
			assert.NotContains(t, body, "supervisor", "unset optional fields are omitted")
			apitest.JSON(t, w, http.StatusCreated, `{"user": {"id": 9, "username": "pg2", "role": "pg"}, "tokens": {"access": "a9", "refresh": "r9"}}`)
		}))
		a := New(env.Client, env.Store, nil)

		user, err := a.Register(t.Context(), valid)

		require.NoError(t, err)
		require.Equal(t, int64(9), user.ID)
		require.Equal(t, "a9", env.Store.AccessToken())
		require.Equal(t, "r9", env.Store.RefreshToken())
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(p *RegisterPayload)
			field  string
		}{
			{"passwords differ", func(p *RegisterPayload) { p.Password2 = "something-else" }, "password2"},
			{"bad email", func(p *RegisterPayload) { p.Email = "not-an-email" }, "email"},
			{"unknown role", func(p *RegisterPayload) { p.Role = "student" }, "role"},
			{"short password", func(p *RegisterPayload) { p.Password, p.Password2 = "short", "short" }, "password"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := apitest.New(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Error("request must not be sent")
				}))
				a := New(env.Client, env.Store, nil)
				payload := valid
				tt.mutate(&payload)

				_, err := a.Register(t.Context(), payload)

				require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
				var verr *api.ValidationError
				require.ErrorAs(t, err, &verr)
				require.Contains(t, verr.Fields, tt.field)
			})
		}
	})
}

func TestAPI_Logout(t *testing.T) {
	t.Run("revokes refresh token and clears", func(t *testing.T) {
		var sent map[string]any
		env := apitest.New(t, models.RolePG, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, pathLogout, r.URL.Path)
			sent = apitest.Body(t, r)
			w.WriteHeader(http.StatusNoContent)
		}))
		a := New(env.Client, env.Store, nil)

		err := a.Logout(t.Context())

		require.NoError(t, err)
		require.Equal(t, map[string]any{"refresh": "test-refresh"}, sent)
		require.True(t, env.Store.Session().Empty())
	})

	t.Run("clears even when backend fails", func(t *testing.T) {
		env := apitest.New(t, models.RolePG, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		a := New(env.Client, env.Store, nil)

		err := a.Logout(t.Context())

		require.NoError(t, err)
		require.True(t, env.Store.Session().Empty())
	})

	t.Run("token rotated by refresh on the way is revoked too", func(t *testing.T) {
		var (
			mu      sync.Mutex
			revoked []any
		)
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, map[string]any{"refresh": "test-refresh"}, apitest.Body(t, r))
			apitest.JSON(t, w, http.StatusOK, `{"access": "a2", "refresh": "r2"}`)
		})
		mux.HandleFunc("POST "+pathLogout, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer a2" {
				apitest.JSON(t, w, http.StatusUnauthorized, `{"detail": "Given token not valid"}`)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			revoked = append(revoked, apitest.Body(t, r)["refresh"])
			w.WriteHeader(http.StatusNoContent)
		})
		env := apitest.New(t, models.RolePG, mux)
		a := New(env.Client, env.Store, nil)

		err := a.Logout(t.Context())

		require.NoError(t, err)
		require.Equal(t, []any{"test-refresh", "r2"}, revoked)
		require.True(t, env.Store.Session().Empty())
	})

	t.Run("no request without session", func(t *testing.T) {
		env := apitest.New(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent")
		}))
		a := New(env.Client, env.Store, nil)

		require.NoError(t, a.Logout(t.Context()))
	})
}

func TestAPI_Profile(t *testing.T) {
	t.Run("profile", func(t *testing.T) {
		env := apitest.New(t, models.RoleSupervisor, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer "+apitest.AccessToken, r.Header.Get("Authorization"))
			apitest.JSON(t, w, http.StatusOK, userJSON)
		}))
		a := New(env.Client, env.Store, nil)

		user, err := a.Profile(t.Context())

		require.NoError(t, err)
		require.Equal(t, "Sam Sup", user.FullName())
	})

	t.Run("update stores returned user", func(t *testing.T) {
		env := apitest.New(t, models.RoleSupervisor, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, map[string]any{"phone_number": "+123"}, apitest.Body(t, r))
			apitest.JSON(t, w, http.StatusOK, `{"id": 7, "username": "sup1", "role": "supervisor", "phone_number": "+123"}`)
		}))
		a := New(env.Client, env.Store, nil)
		phone := "+123"

		_, err := a.UpdateProfile(t.Context(), ProfileUpdate{PhoneNumber: &phone})

		require.NoError(t, err)
		require.Equal(t, "+123", env.Store.User().PhoneNumber)
	})
}

func TestAPI_Passwords(t *testing.T) {
	env := apitest.New(t, models.RolePG, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apitest.JSON(t, w, http.StatusOK, map[string]string{"message": "done: " + r.URL.Path})
	}))
	a := New(env.Client, env.Store, nil)

	msg, err := a.ChangePassword(t.Context(), ChangePasswordPayload{OldPassword: "old", NewPassword: "new-password", NewPassword2: "new-password"})
	require.NoError(t, err)
	require.Equal(t, "done: "+pathChangePassword, msg)

	_, err = a.ChangePassword(t.Context(), ChangePasswordPayload{OldPassword: "old", NewPassword: "new-password", NewPassword2: "typo"})
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)

	msg, err = a.PasswordReset(t.Context(), "pg1@example.com")
	require.NoError(t, err)
	require.Equal(t, "done: "+pathPasswordReset, msg)

	_, err = a.PasswordReset(t.Context(), "nope")
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)

	msg, err = a.PasswordResetConfirm(t.Context(), PasswordResetConfirmPayload{UID: "MQ", Token: "tok", NewPassword: "new-password", NewPassword2: "new-password"})
	require.NoError(t, err)
	require.Equal(t, "done: "+pathPasswordResetConfirm, msg)
}
