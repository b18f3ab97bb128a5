package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, source_id, destination_id, kind, amount, description, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, source_id, destination_id, kind, amount, description, occurred_at
`

// Append transaction to the log
// The table has no UPDATE or DELETE path: records are immutable once stored
func (r *TransactionRepo) CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	if tr.OccurredAt.IsZero() {
		tr.OccurredAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createTransaction,
		tr.ID, tr.SourceID, tr.DestinationID, tr.Kind, tr.Amount, tr.Description, tr.OccurredAt)
	stored, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return stored, fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}

const getTransaction = `-- name: GetTransaction
SELECT id, source_id, destination_id, kind, amount, description, occurred_at
FROM transactions
WHERE id = $1
`

func (r *TransactionRepo) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, id)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, apperrors.ErrTransactionNotFound
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}

// Newest first; seq breaks occurred_at ties in insertion order
const listByAccount = `-- name: ListByAccount
SELECT id, source_id, destination_id, kind, amount, description, occurred_at
FROM transactions
WHERE source_id = $1 OR destination_id = $1
ORDER BY occurred_at DESC, seq DESC
`

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listByAccount, accountID)
	return collectTransactions(rows)
}

const listByAccountAndKind = `-- name: ListByAccountAndKind
SELECT id, source_id, destination_id, kind, amount, description, occurred_at
FROM transactions
WHERE (source_id = $1 OR destination_id = $1) AND kind = $2
ORDER BY occurred_at DESC, seq DESC
`

func (r *TransactionRepo) ListByAccountAndKind(ctx context.Context, accountID uuid.UUID, kind string) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listByAccountAndKind, accountID, kind)
	return collectTransactions(rows)
}

const listByDateRange = `-- name: ListByDateRange
SELECT id, source_id, destination_id, kind, amount, description, occurred_at
FROM transactions
WHERE occurred_at >= $1 AND occurred_at <= $2
ORDER BY occurred_at DESC, seq DESC
`

func (r *TransactionRepo) ListByDateRange(ctx context.Context, from time.Time, to time.Time) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listByDateRange, from, to)
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	trs, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return trs, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.SourceID, &t.DestinationID, &t.Kind, &t.Amount, &t.Description, &t.OccurredAt)
	return t, err
}
