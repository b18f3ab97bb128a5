package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrSameAccountTransfer = errors.New("source and destination are the same account")
	ErrInsufficientFunds   = errors.New("insufficient available balance")

	ErrTransactionNotFound = errors.New("transaction not found")
)
