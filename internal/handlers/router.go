package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josczesny/BancoBrasil/internal/handlers/middleware"
	"github.com/Josczesny/BancoBrasil/internal/logger"
	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/service/account"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	accountService accountService,
	ledgerService ledgerService,
	auditService auditService,
	l logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(userService, l))
	api.Handle("POST /auth/login", handleLogin(authService, l))
	api.Handle("GET /users/me", withAuth(handleUserMe()))

	api.Handle("POST /accounts", withAuth(handleOpenAccount(accountService, auditService, l)))
	api.Handle("GET /accounts", withAuth(handleListAccounts(accountService, l)))
	api.Handle("GET /accounts/{id}", withAuth(handleGetAccount(accountService, l)))
	api.Handle("PATCH /accounts/{id}/credit-limit", withAuth(handleUpdateCreditLimit(accountService, auditService, l)))
	api.Handle("GET /accounts/{id}/transactions", withAuth(handleAccountHistory(ledgerService, l)))

	api.Handle("POST /transactions/deposit", withAuth(handleDeposit(ledgerService, auditService, l)))
	api.Handle("POST /transactions/withdraw", withAuth(handleWithdraw(ledgerService, auditService, l)))
	api.Handle("POST /transactions/transfer", withAuth(handleTransfer(ledgerService, auditService, l)))
	api.Handle("GET /transactions", withAuth(handleListTransactions(ledgerService, l)))
	api.Handle("GET /transactions/{id}", withAuth(handleGetTransaction(ledgerService, l)))

	api.Handle("GET /audit", withAuth(handleListAudit(auditService, l)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(l),
	)

	return handler
}

type authService interface {
	// Login with email and password
	// Has to return apperrors.ErrUserNotFound on bad credentials
	Login(ctx context.Context, email string, password string) (string, models.User, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, name string, email string, password string) (models.User, error)
}

type accountService interface {
	Open(ctx context.Context, params account.OpenParams) (models.Account, error)
	Get(ctx context.Context, id uuid.UUID) (models.Account, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Account, error)
	UpdateCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (models.Account, error)
}

type ledgerService interface {
	Deposit(ctx context.Context, destinationID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error)
	Withdraw(ctx context.Context, sourceID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error)
	Transfer(ctx context.Context, sourceID uuid.UUID, destinationID uuid.UUID, amount decimal.Decimal, description string) (models.Transaction, error)
	TransferByNumbers(ctx context.Context, sourceNumber string, destinationNumber string, amount decimal.Decimal, description string) (models.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error)
	History(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)
	HistoryByKind(ctx context.Context, accountID uuid.UUID, kind string) ([]models.Transaction, error)
	HistoryByDateRange(ctx context.Context, from time.Time, to time.Time) ([]models.Transaction, error)
}

type auditService interface {
	Record(ctx context.Context, actorID *uuid.UUID, action string, table string, recordID *uuid.UUID, before any, after any) (models.AuditRecord, error)
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.AuditRecord, error)
	ListByTable(ctx context.Context, table string) ([]models.AuditRecord, error)
}
