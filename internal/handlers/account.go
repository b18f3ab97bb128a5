package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josczesny/BancoBrasil/internal/apperrors"
	"github.com/Josczesny/BancoBrasil/internal/handlers/render"
	"github.com/Josczesny/BancoBrasil/internal/handlers/userctx"
	"github.com/Josczesny/BancoBrasil/internal/logger"
	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/service/account"
)

// Money leaves the API as decimal strings with two fractional digits,
// never as binary floats
type AccountResponse struct {
	ID               string    `json:"id"`
	BranchCode       string    `json:"branch_code"`
	Number           string    `json:"number"`
	Kind             string    `json:"kind"`
	Balance          string    `json:"balance"`
	CreditLimit      string    `json:"credit_limit"`
	AvailableBalance string    `json:"available_balance"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toAccountResponse(a models.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID.String(),
		BranchCode:       a.BranchCode,
		Number:           a.Number,
		Kind:             a.Kind,
		Balance:          a.Balance.StringFixed(2),
		CreditLimit:      a.CreditLimit.StringFixed(2),
		AvailableBalance: a.AvailableBalance().StringFixed(2),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func handleOpenAccount(accountService accountService, auditService auditService, l logger.Logger) http.Handler {
	type request struct {
		BranchCode  string          `json:"branch_code" validate:"required,max=10"`
		Number      string          `json:"number" validate:"required,max=20"`
		Kind        string          `json:"kind" validate:"required,oneof=CHECKING SAVINGS"`
		CreditLimit decimal.Decimal `json:"credit_limit"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		opened, err := accountService.Open(r.Context(), account.OpenParams{
			OwnerID:     user.ID,
			BranchCode:  data.BranchCode,
			Number:      data.Number,
			Kind:        data.Kind,
			CreditLimit: data.CreditLimit,
		})

		switch {
		case err == nil:
			recordAudit(r, auditService, l, user, "INSERT", "accounts", opened.ID, nil, opened)
			render.JSONWithStatus(w, toAccountResponse(opened), http.StatusCreated)
		case errors.Is(err, apperrors.ErrDuplicateAccountNumber):
			render.ServiceError(w, "Account number already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Owner not found", http.StatusNotFound)
		default:
			l.Error("Failed to open account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListAccounts(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		accounts, err := accountService.ListByOwner(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list accounts", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]AccountResponse, 0, len(accounts))
		for _, a := range accounts {
			res = append(res, toAccountResponse(a))
		}
		render.JSON(w, res)
	})
}

func handleGetAccount(accountService accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid account id", http.StatusBadRequest)
			return
		}

		acc, err := accountService.Get(r.Context(), id)

		switch {
		case err == nil:
			render.JSON(w, toAccountResponse(acc))
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		default:
			l.Error("Failed to get account", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateCreditLimit(accountService accountService, auditService auditService, l logger.Logger) http.Handler {
	type request struct {
		CreditLimit decimal.Decimal `json:"credit_limit"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid account id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		before, err := accountService.Get(r.Context(), id)
		if err == nil {
			var updated models.Account
			updated, err = accountService.UpdateCreditLimit(r.Context(), id, data.CreditLimit)
			if err == nil {
				recordAudit(r, auditService, l, user, "UPDATE", "accounts", id, before, updated)
				render.JSON(w, toAccountResponse(updated))
				return
			}
		}

		switch {
		case errors.Is(err, apperrors.ErrAccountNotFound):
			render.ServiceError(w, "Account not found", http.StatusNotFound)
		default:
			l.Error("Failed to update credit limit", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// recordAudit writes the trail entry around a successful mutation.
// A failed audit write is logged, not surfaced: the mutation already happened.
func recordAudit(r *http.Request, auditService auditService, l logger.Logger, actor models.User, action string, table string, recordID uuid.UUID, before any, after any) {
	_, err := auditService.Record(r.Context(), &actor.ID, action, table, &recordID, before, after)
	if err != nil {
		l.Warn("Failed to write audit record", "action", action, "table", table, "error", err)
	}
}
