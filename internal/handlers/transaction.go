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
)

type TransactionResponse struct {
	ID            string    `json:"id"`
	SourceID      *string   `json:"source_account_id,omitempty"`
	DestinationID *string   `json:"destination_account_id,omitempty"`
	Kind          string    `json:"kind"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func toTransactionResponse(t models.Transaction) TransactionResponse {
	res := TransactionResponse{
		ID:          t.ID.String(),
		Kind:        t.Kind,
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
	}
	if t.SourceID != nil {
		s := t.SourceID.String()
		res.SourceID = &s
	}
	if t.DestinationID != nil {
		s := t.DestinationID.String()
		res.DestinationID = &s
	}
	return res
}

// ledgerError maps the engine error kinds to transport statuses:
// not found 404, invalid input 400, business rejection 409, the rest 500
func ledgerError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrInvalidAmount):
		render.ServiceError(w, "Amount must be greater than zero", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrSameAccountTransfer):
		render.ServiceError(w, "Source and destination must differ", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		render.ServiceError(w, "Insufficient available balance", http.StatusConflict)
	default:
		l.Error("Ledger operation failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleDeposit(ledgerService ledgerService, auditService auditService, l logger.Logger) http.Handler {
	type request struct {
		DestinationID uuid.UUID       `json:"destination_account_id" validate:"required"`
		Amount        decimal.Decimal `json:"amount" validate:"required"`
		Description   string          `json:"description" validate:"max=500"`
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

		tr, err := ledgerService.Deposit(r.Context(), data.DestinationID, data.Amount, data.Description)
		if err != nil {
			ledgerError(w, l, err)
			return
		}

		recordAudit(r, auditService, l, user, "DEPOSIT", "transactions", tr.ID, nil, tr)
		render.JSONWithStatus(w, toTransactionResponse(tr), http.StatusCreated)
	})
}

func handleWithdraw(ledgerService ledgerService, auditService auditService, l logger.Logger) http.Handler {
	type request struct {
		SourceID    uuid.UUID       `json:"source_account_id" validate:"required"`
		Amount      decimal.Decimal `json:"amount" validate:"required"`
		Description string          `json:"description" validate:"max=500"`
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

		tr, err := ledgerService.Withdraw(r.Context(), data.SourceID, data.Amount, data.Description)
		if err != nil {
			ledgerError(w, l, err)
			return
		}

		recordAudit(r, auditService, l, user, "WITHDRAWAL", "transactions", tr.ID, nil, tr)
		render.JSONWithStatus(w, toTransactionResponse(tr), http.StatusCreated)
	})
}

func handleTransfer(ledgerService ledgerService, auditService auditService, l logger.Logger) http.Handler {
	// Accounts are addressed either by id or by number; exactly one pair
	// must be present
	type request struct {
		SourceID          *uuid.UUID      `json:"source_account_id"`
		DestinationID     *uuid.UUID      `json:"destination_account_id"`
		SourceNumber      string          `json:"source_account_number"`
		DestinationNumber string          `json:"destination_account_number"`
		Amount            decimal.Decimal `json:"amount" validate:"required"`
		Description       string          `json:"description" validate:"max=500"`
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

		var tr models.Transaction
		switch {
		case data.SourceID != nil && data.DestinationID != nil:
			tr, err = ledgerService.Transfer(r.Context(), *data.SourceID, *data.DestinationID, data.Amount, data.Description)
		case data.SourceNumber != "" && data.DestinationNumber != "":
			tr, err = ledgerService.TransferByNumbers(r.Context(), data.SourceNumber, data.DestinationNumber, data.Amount, data.Description)
		default:
			render.ServiceError(w, "Provide either account ids or account numbers for both sides", http.StatusBadRequest)
			return
		}
		if err != nil {
			ledgerError(w, l, err)
			return
		}

		recordAudit(r, auditService, l, user, "TRANSFER", "transactions", tr.ID, nil, tr)
		render.JSONWithStatus(w, toTransactionResponse(tr), http.StatusCreated)
	})
}

func handleGetTransaction(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid transaction id", http.StatusBadRequest)
			return
		}

		tr, err := ledgerService.GetTransaction(r.Context(), id)

		switch {
		case err == nil:
			render.JSON(w, toTransactionResponse(tr))
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
		default:
			l.Error("Failed to get transaction", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAccountHistory(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid account id", http.StatusBadRequest)
			return
		}

		var trs []models.Transaction
		if kind := r.URL.Query().Get("kind"); kind != "" {
			trs, err = ledgerService.HistoryByKind(r.Context(), id, kind)
		} else {
			trs, err = ledgerService.History(r.Context(), id)
		}
		if err != nil {
			l.Error("Failed to list account transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]TransactionResponse, 0, len(trs))
		for _, t := range trs {
			res = append(res, toTransactionResponse(t))
		}
		render.JSON(w, res)
	})
}

func handleListTransactions(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			render.ServiceError(w, "Invalid or missing 'from' timestamp", http.StatusBadRequest)
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			render.ServiceError(w, "Invalid or missing 'to' timestamp", http.StatusBadRequest)
			return
		}

		trs, err := ledgerService.HistoryByDateRange(r.Context(), from, to)
		if err != nil {
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]TransactionResponse, 0, len(trs))
		for _, t := range trs {
			res = append(res, toTransactionResponse(t))
		}
		render.JSON(w, res)
	})
}
