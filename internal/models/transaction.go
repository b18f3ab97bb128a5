package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionKindDeposit    = "DEPOSIT"
	TransactionKindWithdrawal = "WITHDRAWAL"
	TransactionKindTransfer   = "TRANSFER"
)

// Transaction is an immutable record of a committed balance mutation.
// Accounts are referenced by id only; history is obtained by querying
// transactions, never via back pointers on the account.
type Transaction struct {
	ID            uuid.UUID
	SourceID      *uuid.UUID
	DestinationID *uuid.UUID
	Kind          string
	Amount        decimal.Decimal
	Description   string
	OccurredAt    time.Time
}
