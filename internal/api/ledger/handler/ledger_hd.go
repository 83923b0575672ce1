package ledgerHandler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"LedgerBot/internal/api/ledger"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/handlerUtil"
	"LedgerBot/pkg/log"
)

func (h *LedgerHandler) CommitTransaction(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing commit transaction request")

	var req ledger.CommitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	id, err := h.ledgerService.Commit(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "commit_transaction")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, fiber.Map{
			"transaction_id": id,
		})
	}
}

func (h *LedgerHandler) GetRecentTransactions(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get recent transactions request")

	limit := ctx.QueryInt("limit", 20)
	scope := ctx.Query("scope")

	var rows []entity.LedgerTransaction
	var err error

	if scope != "" {
		rows, err = h.ledgerService.GetTransactionsByScope(c, scope, limit)
	} else {
		rows, err = h.ledgerService.GetRecentTransactions(c, limit)
	}
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_transactions")
	}

	transactions := make([]ledger.TransactionResponse, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, makeTransactionResponse(row))
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"transactions": transactions,
		})
	}
}

func makeTransactionResponse(row entity.LedgerTransaction) ledger.TransactionResponse {
	return ledger.TransactionResponse{
		ID:          row.ID,
		Scope:       row.Scope,
		Wallet:      row.Wallet,
		ProjectName: row.ProjectName,
		Amount:      row.Amount,
		Fee:         row.Fee,
		Description: row.Description,
		SourceUser:  row.SourceUser,
		CreatedAt:   row.CreatedAt.Format(time.RFC3339),
	}
}
