package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccountKindChecking = "CHECKING"
	AccountKindSavings  = "SAVINGS"
)

type Account struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	BranchCode  string
	Number      string
	Kind        string
	Balance     decimal.Decimal
	CreditLimit decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AvailableBalance is the spendable ceiling: balance plus credit limit.
// Every balance mutation must leave it non negative.
func (a *Account) AvailableBalance() decimal.Decimal {
	return a.Balance.Add(a.CreditLimit)
}

func (a *Account) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.AvailableBalance().GreaterThanOrEqual(amount)
}
