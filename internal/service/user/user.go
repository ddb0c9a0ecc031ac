package user

import (
	"context"
	"fmt"

	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/repository"
)

type UserService struct {
	accounts repository.AccountRepo
}

func NewService(accounts repository.AccountRepo) *UserService {
	return &UserService{accounts: accounts}
}

func (s *UserService) GetUser(ctx context.Context, id int64) (models.User, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}
	return account.User, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, arg repository.UpdateProfileParams) (models.User, error) {
	account, err := s.accounts.UpdateProfile(ctx, id, arg)
	if err != nil {
		return models.User{}, fmt.Errorf("can't update profile. Err: %w", err)
	}
	return account.User, nil
}

// Trainees assigned to the supervisor
func (s *UserService) AssignedPGs(ctx context.Context, supervisorID int64) ([]models.AssignedPG, error) {
	accounts, err := s.accounts.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("can't list assigned pgs. Err: %w", err)
	}

	pgs := make([]models.AssignedPG, 0, len(accounts))
	for _, a := range accounts {
		pgs = append(pgs, models.AssignedPG{
			ID:        a.ID,
			Username:  a.Username,
			FullName:  a.FullName(),
			Email:     a.Email,
			Specialty: models.Label(a.Specialty),
			Year:      models.Label(a.Year),
		})
	}
	return pgs, nil
}
