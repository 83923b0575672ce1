package ledger

import "LedgerBot/pkg/response"

var (
	ErrInvalidScope        = response.NewError(400, "invalid accounting scope")
	ErrMissingWallet       = response.NewError(422, "no wallet resolved for transaction")
	ErrMissingProject      = response.NewError(422, "project transactions require a project name")
	ErrInvalidAmount       = response.NewError(400, "invalid transaction amount")
	ErrTransactionNotFound = response.NewError(404, "transaction not found")
	ErrCreateTransaction   = response.NewError(500, "failed to record transaction")
)
