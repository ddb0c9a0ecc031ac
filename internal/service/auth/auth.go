package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/repository"
	"github.com/nkiryanov/sims/internal/service/auth/tokenmanager"
)

type Config struct {
	// Hasher to use during registration or login process
	// If not set DefaultHasher is used
	Hasher PasswordHasher
}

// Auth service
type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	tokens *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repositories to access long term data
	storage repository.Storage

	// Compared against when user not exists, so unknown and known usernames take same time
	dummyHash string
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	dummyHash, err := hasher.Hash("dummy-password")
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable. Err: %w", err)
	}

	return &AuthService{
		tokens:    tokens,
		hasher:    hasher,
		storage:   storage,
		dummyHash: dummyHash,
	}, nil
}

// Register user and issue the first token pair
// Has to return apperrors.ErrUserAlreadyExists if username is taken
func (s *AuthService) Register(ctx context.Context, password string, arg repository.CreateAccountParams) (models.User, models.TokenPair, error) {
	var (
		user models.User
		pair models.TokenPair
	)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, pair, fmt.Errorf("can't use this as password. Err: %w", err)
	}
	arg.PasswordHash = hash

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		account, err := storage.Account().CreateAccount(ctx, arg)
		if err != nil {
			return err
		}

		user = account.User
		pair, err = s.tokens.WithRepo(storage.Refresh()).GeneratePair(ctx, user)
		return err
	})

	return user, pair, err
}

// Login with username and password
// Returns apperrors.ErrUserNotFound or apperrors.ErrWrongPassword if credentials are not valid
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	account, err := s.storage.Account().GetAccountByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, pair, err
	case err != nil:
		return models.User{}, pair, err
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return models.User{}, pair, apperrors.ErrWrongPassword
	}

	pair, err = s.tokens.GeneratePair(ctx, account.User)
	if err != nil {
		return models.User{}, pair, fmt.Errorf("token could not generated. Err: %w", err)
	}

	return account.User, pair, nil
}

// Exchange refresh token for a new pair. The refresh token is single use
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		tokens := s.tokens.WithRepo(storage.Refresh())

		token, err := tokens.UseRefresh(ctx, refresh)
		if err != nil {
			return err
		}

		account, err := storage.Account().GetAccountByID(ctx, token.UserID)
		if err != nil {
			return err
		}

		pair, err = tokens.GeneratePair(ctx, account.User)
		return err
	})

	return pair, err
}

// Logout revokes the refresh token of the user. Revoking already used token is fine
func (s *AuthService) Logout(ctx context.Context, userID int64, refresh string) error {
	token, err := s.storage.Refresh().Get(ctx, refresh)
	if err != nil {
		return err
	}
	if token.UserID != userID {
		return fmt.Errorf("token of other user: %w", apperrors.ErrRefreshTokenNotFound)
	}
	if !token.Usable(time.Now()) {
		return nil
	}

	_, err = s.tokens.UseRefresh(ctx, refresh)
	switch {
	case err == nil,
		errors.Is(err, apperrors.ErrRefreshTokenIsUsed), // spent concurrently
		errors.Is(err, apperrors.ErrRefreshTokenExpired):
		return nil
	default:
		return err
	}
}

// Authenticate returns the user the access token was issued for
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.User, error) {
	claims, err := s.tokens.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	account, err := s.storage.Account().GetAccountByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, err
	}

	return account.User, nil
}

// ChangePassword checks the old password, stores the new one and revokes all refresh tokens of the user
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword string, newPassword string) error {
	return s.storage.InTx(ctx, func(storage repository.Storage) error {
		account, err := storage.Account().GetAccountByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.hasher.Compare(account.PasswordHash, oldPassword); err != nil {
			return apperrors.ErrWrongPassword
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("can't use this as password. Err: %w", err)
		}

		if err := storage.Account().SetPasswordHash(ctx, userID, hash); err != nil {
			return err
		}

		return s.tokens.WithRepo(storage.Refresh()).RevokeAll(ctx, userID)
	})
}
