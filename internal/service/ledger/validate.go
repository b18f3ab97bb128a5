package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/models"
)

// Pure validation rules shared by the ledger operations. No I/O here.

func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("got %s: %w", amount, apperrors.ErrInvalidAmount)
	}
	return nil
}

func ValidateDistinctAccounts(a uuid.UUID, b uuid.UUID) error {
	if a == b {
		return fmt.Errorf("account %s: %w", a, apperrors.ErrSameAccountTransfer)
	}
	return nil
}

// HasSufficientFunds reports whether the account can cover amount,
// credit limit included.
func HasSufficientFunds(account models.Account, amount decimal.Decimal) bool {
	return account.HasSufficientFunds(amount)
}
