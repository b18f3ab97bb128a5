package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (owner_id, branch_code, number, kind, balance, credit_limit)
VALUES ($1, $2, $3, $4, 0, $5)
RETURNING id, owner_id, branch_code, number, kind, balance, credit_limit, created_at, updated_at
`

func (r *AccountRepo) CreateAccount(ctx context.Context, params repository.CreateAccountParams) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount, params.OwnerID, params.BranchCode, params.Number, params.Kind, params.CreditLimit)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return account, apperrors.ErrDuplicateAccountNumber
		}
		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const getAccount = `-- name: GetAccount
SELECT id, owner_id, branch_code, number, kind, balance, credit_limit, created_at, updated_at
FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, id)
	return collectAccount(rows)
}

const getAccountByNumber = `-- name: GetAccountByNumber
SELECT id, owner_id, branch_code, number, kind, balance, credit_limit, created_at, updated_at
FROM accounts
WHERE number = $1
`

func (r *AccountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByNumber, number)
	return collectAccount(rows)
}

const getAccountForUpdate = `-- name: GetAccountForUpdate
SELECT id, owner_id, branch_code, number, kind, balance, credit_limit, created_at, updated_at
FROM accounts
WHERE id = $1
FOR UPDATE
`

// Get account and hold its row lock until the enclosing transaction ends
// Outside a transaction the lock is released immediately, so this only makes
// sense on a Storage obtained through InTx
func (r *AccountRepo) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountForUpdate, id)
	return collectAccount(rows)
}

const existsByNumber = `-- name: ExistsByNumber
SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)
`

func (r *AccountRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, existsByNumber, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const listAccountsByOwner = `-- name: ListByOwner
SELECT id, owner_id, branch_code, number, kind, balance, credit_limit, created_at, updated_at
FROM accounts
WHERE owner_id = $1
ORDER BY created_at
`

func (r *AccountRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listAccountsByOwner, ownerID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

const updateAccount = `-- name: UpdateAccount
UPDATE accounts
SET owner_id = $2, branch_code = $3, number = $4, kind = $5, balance = $6, credit_limit = $7, updated_at = now()
WHERE id = $1
RETURNING id, owner_id, branch_code, number, kind, balance, credit_limit, created_at, updated_at
`

// Full record replacement; there are no partial field updates
func (r *AccountRepo) UpdateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	if account.ID == uuid.Nil {
		return models.Account{}, fmt.Errorf("account id must not be zero: %w", apperrors.ErrAccountNotFound)
	}

	rows, _ := r.DB.Query(ctx, updateAccount,
		account.ID, account.OwnerID, account.BranchCode, account.Number, account.Kind, account.Balance, account.CreditLimit)
	return collectAccount(rows)
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.BranchCode, &a.Number, &a.Kind, &a.Balance, &a.CreditLimit, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
