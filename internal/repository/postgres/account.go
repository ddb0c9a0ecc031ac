package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/sims/internal/apperrors"
	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `id, created_at, username, password_hash, email, first_name, last_name,
	role, specialty, year, phone_number, supervisor_id`

const createAccount = `-- name: CreateAccount
INSERT INTO users (username, password_hash, email, first_name, last_name, role, specialty, year, phone_number, supervisor_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + accountColumns

func (r *AccountRepo) CreateAccount(ctx context.Context, arg repository.CreateAccountParams) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount,
		arg.Username, arg.PasswordHash, arg.Email, arg.FirstName, arg.LastName,
		arg.Role, arg.Specialty, arg.Year, arg.PhoneNumber, arg.SupervisorID,
	)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account, apperrors.ErrUserAlreadyExists
		}
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return account, fmt.Errorf("supervisor %d: %w", *arg.SupervisorID, apperrors.ErrUserNotFound)
		}

		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const getAccountByID = `-- name: GetAccountByID
SELECT ` + accountColumns + ` FROM users
WHERE id = $1
`

func (r *AccountRepo) GetAccountByID(ctx context.Context, id int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByID, id)
	return collectAccount(rows)
}

const getAccountByUsername = `-- name: GetAccountByUsername
SELECT ` + accountColumns + ` FROM users
WHERE username = $1
`

func (r *AccountRepo) GetAccountByUsername(ctx context.Context, username string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByUsername, username)
	return collectAccount(rows)
}

const updateProfile = `-- name: UpdateProfile
UPDATE users SET
	email        = COALESCE($2, email),
	first_name   = COALESCE($3, first_name),
	last_name    = COALESCE($4, last_name),
	specialty    = COALESCE($5, specialty),
	year         = COALESCE($6, year),
	phone_number = COALESCE($7, phone_number)
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) UpdateProfile(ctx context.Context, id int64, arg repository.UpdateProfileParams) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateProfile,
		id, arg.Email, arg.FirstName, arg.LastName, arg.Specialty, arg.Year, arg.PhoneNumber,
	)
	return collectAccount(rows)
}

const setPasswordHash = `-- name: SetPasswordHash
UPDATE users SET password_hash = $2
WHERE id = $1
`

func (r *AccountRepo) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.DB.Exec(ctx, setPasswordHash, id, hash)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

const listBySupervisor = `-- name: ListBySupervisor
SELECT ` + accountColumns + ` FROM users
WHERE supervisor_id = $1 AND role = 'pg'
ORDER BY id
`

func (r *AccountRepo) ListBySupervisor(ctx context.Context, supervisorID int64) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listBySupervisor, supervisorID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrUserNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.CreatedAt, &a.Username, &a.PasswordHash, &a.Email, &a.FirstName, &a.LastName,
		&a.Role, &a.Specialty, &a.Year, &a.PhoneNumber, &a.SupervisorID,
	)
	return a, err
}
