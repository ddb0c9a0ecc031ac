// Package auth logs users in and out and keeps the stored session in step with the backend
package auth

import (
	"context"
	"fmt"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathLogin                = "/api/auth/login/"
	pathRegister             = "/api/auth/register/"
	pathLogout               = "/api/auth/logout/"
	pathProfile              = "/api/auth/profile/"
	pathProfileUpdate        = "/api/auth/profile/update/"
	pathChangePassword       = "/api/auth/change-password/"
	pathPasswordReset        = "/api/auth/password-reset/"
	pathPasswordResetConfirm = "/api/auth/password-reset/confirm/"

	maxLogoutAttempts = 2
)

// Session mutations done by this package. Implemented by tokenstore.Store
type SessionStore interface {
	RefreshToken() string
	SetSession(ctx context.Context, user models.User, access string, refresh string) error
	UpdateUser(ctx context.Context, user models.User) error
	ClearSession(ctx context.Context) error
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterPayload struct {
	Username    string      `json:"username" validate:"required"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8"`
	Password2   string      `json:"password2" validate:"required,eqfield=Password"`
	FirstName   string      `json:"first_name" validate:"required"`
	LastName    string      `json:"last_name" validate:"required"`
	Role        models.Role `json:"role" validate:"required,oneof=pg supervisor admin"`
	Specialty   string      `json:"specialty,omitempty"`
	Year        string      `json:"year,omitempty"`
	Supervisor  *int64      `json:"supervisor,omitempty"`
	PhoneNumber string      `json:"phone_number,omitempty"`
}

// Only set fields are sent
type ProfileUpdate struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Specialty   *string `json:"specialty,omitempty"`
	Year        *string `json:"year,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

type ChangePasswordPayload struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}

type PasswordResetConfirmPayload struct {
	UID          string `json:"uid" validate:"required"`
	Token        string `json:"token" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
}

type loginResponse struct {
	User    models.User `json:"user"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
}

type registerResponse struct {
	User   models.User `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type API struct {
	client api.Client
	store  SessionStore
	logger logger.Logger
}

func New(client api.Client, store SessionStore, l logger.Logger) *API {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &API{client: client, store: store, logger: l}
}

// Login and store the new session
func (a *API) Login(ctx context.Context, creds Credentials) (models.User, error) {
	if err := api.Validate(creds); err != nil {
		return models.User{}, err
	}

	var resp loginResponse
	if err := a.client.Post(ctx, pathLogin, creds, &resp); err != nil {
		return models.User{}, err
	}

	if err := a.store.SetSession(ctx, resp.User, resp.Access, resp.Refresh); err != nil {
		return models.User{}, fmt.Errorf("failed to store session: %w", err)
	}
	a.logger.Info("Logged in", "user_id", resp.User.ID, "role", resp.User.Role)
	return resp.User, nil
}

// Register account and store the session the backend opens for it
func (a *API) Register(ctx context.Context, payload RegisterPayload) (models.User, error) {
	if err := api.Validate(payload); err != nil {
		return models.User{}, err
	}

	var resp registerResponse
	if err := a.client.Post(ctx, pathRegister, payload, &resp); err != nil {
		return models.User{}, err
	}

	if err := a.store.SetSession(ctx, resp.User, resp.Tokens.Access, resp.Tokens.Refresh); err != nil {
		return models.User{}, fmt.Errorf("failed to store session: %w", err)
	}
	a.logger.Info("Registered", "user_id", resp.User.ID, "role", resp.User.Role)
	return resp.User, nil
}

// Logout revokes the refresh token if the backend is reachable and always clears the local session.
// An expired access token makes the client refresh before the logout goes out; a rotating backend then
// spends the token in the request body, so logout is repeated with the token the refresh stored.
func (a *API) Logout(ctx context.Context) error {
	sent := a.store.RefreshToken()
	for attempt := 0; sent != "" && attempt < maxLogoutAttempts; attempt++ {
		err := a.client.Post(ctx, pathLogout, map[string]string{"refresh": sent}, nil)

		current := a.store.RefreshToken()
		if current == "" || current == sent {
			if err != nil {
				a.logger.Warn("Logout request failed, clearing local session anyway", "error", err)
			}
			break
		}

		a.logger.Debug("Refresh token rotated during logout, revoking the current one")
		sent = current
	}
	return a.store.ClearSession(ctx)
}

func (a *API) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	err := a.client.Get(ctx, pathProfile, nil, &user)
	return user, err
}

// UpdateProfile sends changed fields and stores the user the backend returns
func (a *API) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	if err := api.Validate(update); err != nil {
		return models.User{}, err
	}

	var user models.User
	if err := a.client.Patch(ctx, pathProfileUpdate, update, &user); err != nil {
		return models.User{}, err
	}

	if err := a.store.UpdateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("failed to store user: %w", err)
	}
	return user, nil
}

func (a *API) ChangePassword(ctx context.Context, payload ChangePasswordPayload) (string, error) {
	if err := api.Validate(payload); err != nil {
		return "", err
	}
	var resp messageResponse
	err := a.client.Post(ctx, pathChangePassword, payload, &resp)
	return resp.Message, err
}

func (a *API) PasswordReset(ctx context.Context, email string) (string, error) {
	if err := api.ValidateVar("email", email, "required,email"); err != nil {
		return "", err
	}
	var resp messageResponse
	err := a.client.Post(ctx, pathPasswordReset, map[string]string{"email": email}, &resp)
	return resp.Message, err
}

func (a *API) PasswordResetConfirm(ctx context.Context, payload PasswordResetConfirmPayload) (string, error) {
	if err := api.Validate(payload); err != nil {
		return "", err
	}
	var resp messageResponse
	err := a.client.Post(ctx, pathPasswordResetConfirm, payload, &resp)
	return resp.Message, err
}
