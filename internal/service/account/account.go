package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/repository"
)

type OpenParams struct {
	OwnerID     uuid.UUID
	BranchCode  string
	Number      string
	Kind        string
	CreditLimit decimal.Decimal
}

// AccountService manages account records. Balance mutations are not done
// here: money moves only through the ledger service.
type AccountService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *AccountService {
	return &AccountService{storage: storage}
}

// Open creates an account with zero balance for an existing user.
// Returns apperrors.ErrDuplicateAccountNumber if the number is taken and
// apperrors.ErrUserNotFound if the owner does not exist.
func (s *AccountService) Open(ctx context.Context, params OpenParams) (models.Account, error) {
	if _, err := s.storage.User().GetUserByID(ctx, params.OwnerID); err != nil {
		return models.Account{}, fmt.Errorf("owner %s: %w", params.OwnerID, err)
	}

	account, err := s.storage.Account().CreateAccount(ctx, repository.CreateAccountParams{
		OwnerID:     params.OwnerID,
		BranchCode:  params.BranchCode,
		Number:      params.Number,
		Kind:        params.Kind,
		CreditLimit: params.CreditLimit,
	})
	if err != nil {
		return models.Account{}, fmt.Errorf("can't open account. Err: %w", err)
	}

	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (models.Account, error) {
	return s.storage.Account().GetAccount(ctx, id)
}

func (s *AccountService) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	return s.storage.Account().GetAccountByNumber(ctx, number)
}

func (s *AccountService) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return s.storage.Account().ExistsByNumber(ctx, number)
}

func (s *AccountService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error) {
	return s.storage.Account().ListByOwner(ctx, ownerID)
}

// UpdateCreditLimit rewrites the account with a new credit limit.
// Runs in a transaction with the row locked so a concurrent ledger
// operation can't be interleaved between read and write.
func (s *AccountService) UpdateCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (models.Account, error) {
	if limit.IsNegative() {
		return models.Account{}, fmt.Errorf("credit limit must not be negative, got %s", limit)
	}

	var updated models.Account
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		account, err := st.Account().GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Lowering the limit must not push the available balance below zero
		if account.Balance.Add(limit).IsNegative() {
			return fmt.Errorf("credit limit %s leaves account %s overdrawn beyond limit", limit, id)
		}

		account.CreditLimit = limit
		updated, err = st.Account().UpdateAccount(ctx, account)
		return err
	})
	if err != nil {
		return models.Account{}, err
	}

	return updated, nil
}
