package repository

import (
	"context"

	"github.com/nkiryanov/sims/internal/models"
)

type CreateAccountParams struct {
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	Role         models.Role
	Specialty    string
	Year         string
	PhoneNumber  string
	SupervisorID *int64
}

// Only non nil fields are updated
type UpdateProfileParams struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Specialty   *string
	Year        *string
	PhoneNumber *string
}

// Account repository interface
type AccountRepo interface {
	// Create account
	// If account with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateAccount(ctx context.Context, arg CreateAccountParams) (models.Account, error)

	// Get account by it's id or username
	// If account not found must return apperrors.ErrUserNotFound
	GetAccountByID(ctx context.Context, id int64) (models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (models.Account, error)

	// Update profile fields and return the updated account
	UpdateProfile(ctx context.Context, id int64, arg UpdateProfileParams) (models.Account, error)
	SetPasswordHash(ctx context.Context, id int64, hash string) error

	// Trainees (role pg) assigned to supervisor
	ListBySupervisor(ctx context.Context, supervisorID int64) ([]models.Account, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token even if it expired or used already
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, token string) (models.RefreshToken, error)

	// Mark token used and return it
	// If the token is already used, must not overwrite 'usedAt' and has to return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, token string) (models.RefreshToken, error)

	// Mark all not used tokens of the user as used. Returns number of revoked tokens
	RevokeAll(ctx context.Context, userID int64) (int64, error)
}

type Storage interface {
	Account() AccountRepo
	Refresh() RefreshTokenRepo

	// Run fn in transaction: storage passed to fn works within it
	InTx(ctx context.Context, fn func(Storage) error) error
}
