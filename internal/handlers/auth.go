package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/handlers/render"
	"github.com/nkiryanov/sims/internal/handlers/userctx"
	"github.com/nkiryanov/sims/internal/logger"
	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/repository"
)

type authService interface {
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, password string, arg repository.CreateAccountParams) (models.User, models.TokenPair, error)

	// Has to return apperrors.ErrUserNotFound or apperrors.ErrWrongPassword on bad credentials
	Login(ctx context.Context, username string, password string) (models.User, models.TokenPair, error)

	// Single use exchange of refresh token to a new pair
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	Logout(ctx context.Context, userID int64, refresh string) error
	ChangePassword(ctx context.Context, userID int64, oldPassword string, newPassword string) error
}

type profileService interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, arg repository.UpdateProfileParams) (models.User, error)
}

type AuthHandler struct {
	auth   authService
	users  profileService
	logger logger.Logger
}

func NewAuth(auth authService, users profileService, l logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: l}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username    string      `json:"username" validate:"required,max=150"`
		Email       string      `json:"email" validate:"required,email"`
		Password    string      `json:"password" validate:"required,min=8"`
		Password2   string      `json:"password2" validate:"required,eqfield=Password"`
		FirstName   string      `json:"first_name" validate:"required,max=150"`
		LastName    string      `json:"last_name" validate:"required,max=150"`
		Role        models.Role `json:"role" validate:"required,role"`
		Specialty   string      `json:"specialty" validate:"max=100"`
		Year        string      `json:"year" validate:"max=10"`
		Supervisor  *int64      `json:"supervisor"`
		PhoneNumber string      `json:"phone_number" validate:"max=20"`
	}
	type RegisterSuccessResponse struct {
		Message string             `json:"message"`
		User    models.User        `json:"user"`
		Tokens  models.TokenValues `json:"tokens"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Register(r.Context(), data.Password, repository.CreateAccountParams{
		Username:     data.Username,
		Email:        data.Email,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		Role:         data.Role,
		Specialty:    data.Specialty,
		Year:         data.Year,
		PhoneNumber:  data.PhoneNumber,
		SupervisorID: data.Supervisor,
	})
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
		return
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "Supervisor not found", http.StatusBadRequest)
		return
	case err != nil:
		h.internalError(w, "register failed", err)
		return
	}

	render.JSONWithStatus(w, RegisterSuccessResponse{
		Message: "User registered successfully",
		User:    user,
		Tokens:  pair.Values(),
	}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		User models.User `json:"user"`
		models.TokenValues
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), data.Username, data.Password)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrWrongPassword):
		render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	case err != nil:
		h.internalError(w, "login failed", err)
		return
	}

	render.JSON(w, LoginSuccessResponse{
		User:        user,
		TokenValues: pair.Values(),
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		Refresh string `json:"refresh" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), data.Refresh)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenExpired):
		render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		return
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
		errors.Is(err, apperrors.ErrRefreshTokenIsUsed),
		errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "Token is invalid or expired", http.StatusUnauthorized)
		return
	case err != nil:
		h.internalError(w, "refresh failed", err)
		return
	}

	render.JSON(w, pair.Values())
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		Refresh string `json:"refresh" validate:"required"`
	}

	user, _ := userctx.FromContext(r.Context())
	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	err = h.auth.Logout(r.Context(), user.ID, data.Refresh)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		render.ServiceError(w, "Invalid refresh token", http.StatusBadRequest)
		return
	case err != nil:
		h.internalError(w, "logout failed", err)
		return
	}

	render.JSON(w, messageResponse{Message: "Successfully logged out"})
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.FromContext(r.Context())

	fresh, err := h.users.GetUser(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, "profile failed", err)
		return
	}

	render.JSON(w, fresh)
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	type ProfileUpdateRequest struct {
		Email       *string `json:"email" validate:"omitempty,email"`
		FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
		LastName    *string `json:"last_name" validate:"omitempty,max=150"`
		Specialty   *string `json:"specialty" validate:"omitempty,max=100"`
		Year        *string `json:"year" validate:"omitempty,max=10"`
		PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	}

	user, _ := userctx.FromContext(r.Context())
	data, err := render.BindAndValidate[ProfileUpdateRequest](w, r)
	if err != nil {
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, repository.UpdateProfileParams(data))
	if err != nil {
		h.internalError(w, "profile update failed", err)
		return
	}

	render.JSON(w, updated)
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type ChangePasswordRequest struct {
		OldPassword  string `json:"old_password" validate:"required"`
		NewPassword  string `json:"new_password" validate:"required,min=8"`
		NewPassword2 string `json:"new_password2" validate:"required,eqfield=NewPassword"`
	}

	user, _ := userctx.FromContext(r.Context())
	data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.auth.ChangePassword(r.Context(), user.ID, data.OldPassword, data.NewPassword)
	switch {
	case errors.Is(err, apperrors.ErrWrongPassword):
		render.ServiceError(w, "Old password is incorrect", http.StatusBadRequest)
		return
	case err != nil:
		h.internalError(w, "change password failed", err)
		return
	}

	render.JSON(w, messageResponse{Message: "Password changed successfully"})
}

func (h *AuthHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}
