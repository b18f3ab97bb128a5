package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josczesny/BancoBrasil/internal/models"
)

type CreateAccountParams struct {
	OwnerID     uuid.UUID
	BranchCode  string
	Number      string
	Kind        string
	CreditLimit decimal.Decimal
}

// Account repository interface
type AccountRepo interface {
	// Create account with zero balance
	// If the number is taken already has to return apperrors.ErrDuplicateAccountNumber
	CreateAccount(ctx context.Context, params CreateAccountParams) (models.Account, error)

	// Get account by id or number
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (models.Account, error)

	// Get account and hold its row lock until the enclosing transaction ends
	// Callers that lock several accounts must do so in ascending id order
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (models.Account, error)

	ExistsByNumber(ctx context.Context, number string) (bool, error)

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error)

	// Replace the full account record and bump updated_at
	// Business invariants are the caller's job; only a zero id is rejected here
	UpdateAccount(ctx context.Context, account models.Account) (models.Account, error)
}

// Transaction repository interface
// The transactions table is append only: records are created once and
// never updated or removed
type TransactionRepo interface {
	// Persist transaction, assigning id and occurred_at when unset
	CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error)

	// If transaction not found must return apperrors.ErrTransactionNotFound
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)

	// Ordered by occurred_at descending, ties broken by insertion order
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
	ListByAccountAndKind(ctx context.Context, accountID uuid.UUID, kind string) ([]models.Transaction, error)
	ListByDateRange(ctx context.Context, from time.Time, to time.Time) ([]models.Transaction, error)
}

// User repository interface
type UserRepo interface {
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, hashedPassword string) (models.User, error)

	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Audit repository interface, append only like transactions
type AuditRepo interface {
	Append(ctx context.Context, rec models.AuditRecord) (models.AuditRecord, error)
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.AuditRecord, error)
	ListByTable(ctx context.Context, table string) ([]models.AuditRecord, error)
}

// Storage bundles the repositories over a single connection or transaction
type Storage interface {
	Account() AccountRepo
	Transaction() TransactionRepo
	User() UserRepo
	Audit() AuditRepo

	// Run fn within a database transaction: commit when fn returns nil,
	// roll back otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
