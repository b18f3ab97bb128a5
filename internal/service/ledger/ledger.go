package ledger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/repository"
)

// Fallback descriptions when the caller sends a blank one
const (
	defaultDepositDescription    = "Deposit"
	defaultWithdrawalDescription = "Withdrawal"
	defaultTransferDescription   = "Transfer"
)

// LedgerService mutates account balances through deposits, withdrawals and
// transfers. Every operation validates its inputs, locks the involved
// accounts in ascending id order, checks the available balance and commits
// the transaction record together with the balance changes as one database
// transaction. A failed operation leaves no trace: there is no pending or
// failed state in the transactions table.
//
// Operations never retry on their own. A caller that resubmits after a
// timeout may apply the same movement twice; the delivery contract is
// at most once per call.
type LedgerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LedgerService {
	return &LedgerService{storage: storage}
}

func (s *LedgerService) Deposit(ctx context.Context, destinationID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	if description == "" {
		description = defaultDepositDescription
	}

	var stored models.Transaction
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		account, err := st.Account().GetAccountForUpdate(ctx, destinationID)
		if err != nil {
			return fmt.Errorf("destination account %s: %w", destinationID, err)
		}

		// Deposits have no upper bound, only the amount check above
		account.Balance = account.Balance.Add(amount)

		stored, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			DestinationID: &account.ID,
			Kind:          models.TransactionKindDeposit,
			Amount:        amount,
			Description:   description,
		})
		if err != nil {
			return err
		}

		_, err = st.Account().UpdateAccount(ctx, account)
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	return stored, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, sourceID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	if description == "" {
		description = defaultWithdrawalDescription
	}

	var stored models.Transaction
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		account, err := st.Account().GetAccountForUpdate(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("source account %s: %w", sourceID, err)
		}

		if !HasSufficientFunds(account, amount) {
			return insufficientFunds(account, amount)
		}
		account.Balance = account.Balance.Sub(amount)

		stored, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			SourceID:    &account.ID,
			Kind:        models.TransactionKindWithdrawal,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			return err
		}

		_, err = st.Account().UpdateAccount(ctx, account)
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	return stored, nil
}

func (s *LedgerService) Transfer(ctx context.Context, sourceID uuid.UUID, destinationID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	if err := ValidateDistinctAccounts(sourceID, destinationID); err != nil {
		return models.Transaction{}, err
	}
	if description == "" {
		description = defaultTransferDescription
	}

	var stored models.Transaction
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		source, destination, err := lockPair(ctx, st.Account(), sourceID, destinationID)
		if err != nil {
			return err
		}

		if !HasSufficientFunds(source, amount) {
			return insufficientFunds(source, amount)
		}
		source.Balance = source.Balance.Sub(amount)
		destination.Balance = destination.Balance.Add(amount)

		stored, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			SourceID:      &source.ID,
			DestinationID: &destination.ID,
			Kind:          models.TransactionKindTransfer,
			Amount:        amount,
			Description:   description,
		})
		if err != nil {
			return err
		}

		if _, err = st.Account().UpdateAccount(ctx, source); err != nil {
			return err
		}
		_, err = st.Account().UpdateAccount(ctx, destination)
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	return stored, nil
}

// TransferByNumbers resolves both account numbers and delegates to Transfer.
// Pure adapter: no balance logic of its own.
func (s *LedgerService) TransferByNumbers(ctx context.Context, sourceNumber string, destinationNumber string, amount decimal.Decimal, description string) (models.Transaction, error) {
	source, err := s.storage.Account().GetAccountByNumber(ctx, sourceNumber)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("source account number %s: %w", sourceNumber, err)
	}

	destination, err := s.storage.Account().GetAccountByNumber(ctx, destinationNumber)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("destination account number %s: %w", destinationNumber, err)
	}

	return s.Transfer(ctx, source.ID, destination.ID, amount, description)
}

func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	return s.storage.Transaction().GetTransaction(ctx, id)
}

// History of an account, newest first. Derived from the transaction log,
// never from the account record itself.
func (s *LedgerService) History(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	return s.storage.Transaction().ListByAccount(ctx, accountID)
}

func (s *LedgerService) HistoryByKind(ctx context.Context, accountID uuid.UUID, kind string) ([]models.Transaction, error) {
	return s.storage.Transaction().ListByAccountAndKind(ctx, accountID, kind)
}

func (s *LedgerService) HistoryByDateRange(ctx context.Context, from time.Time, to time.Time) ([]models.Transaction, error) {
	return s.storage.Transaction().ListByDateRange(ctx, from, to)
}

// lockPair locks two accounts in ascending id order regardless of which is
// source and which is destination, so opposing transfers cannot deadlock.
func lockPair(ctx context.Context, accounts repository.AccountRepo, sourceID uuid.UUID, destinationID uuid.UUID) (source models.Account, destination models.Account, err error) {
	firstID, secondID := sourceID, destinationID
	if bytes.Compare(destinationID[:], sourceID[:]) < 0 {
		firstID, secondID = destinationID, sourceID
	}

	load := func(id uuid.UUID) (models.Account, error) {
		account, err := accounts.GetAccountForUpdate(ctx, id)
		if err != nil {
			role := "source"
			if id == destinationID {
				role = "destination"
			}
			return account, fmt.Errorf("%s account %s: %w", role, id, err)
		}
		return account, nil
	}

	first, err := load(firstID)
	if err != nil {
		return source, destination, err
	}
	second, err := load(secondID)
	if err != nil {
		return source, destination, err
	}

	if first.ID == sourceID {
		return first, second, nil
	}
	return second, first, nil
}

func insufficientFunds(account models.Account, requested decimal.Decimal) error {
	return fmt.Errorf("account %s: requested %s, available %s: %w",
		account.ID, requested, account.AvailableBalance(), apperrors.ErrInsufficientFunds)
}
