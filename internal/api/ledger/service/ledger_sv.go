package ledgerService

import (
	"time"

	"golang.org/x/net/context"

	"LedgerBot/internal/api/ledger"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/log"
)

func (s *ledgerService) Commit(ctx context.Context, req ledger.CommitRequest) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	wallet, ok := s.walletByScope[entity.Scope(req.Scope)]
	if !ok || wallet == "" {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"scope":      req.Scope,
		}).Warn("No wallet mapped for scope")
		return "", ledger.ErrMissingWallet
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate transaction ID")
		return "", ledger.ErrCreateTransaction
	}

	transaction := entity.LedgerTransaction{
		ID:          id,
		Scope:       req.Scope,
		Wallet:      wallet,
		ProjectName: req.ProjectName,
		Amount:      req.Amount,
		Fee:         req.Fee,
		Description: req.Description,
		SourceUser:  req.SourceUser,
		SourceChat:  req.SourceChat,
		MessageID:   req.MessageID,
	}

	if err := transaction.Validate(); err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"scope":      req.Scope,
		}).Warn("Transaction failed validation")
		return "", err
	}

	repo, err := s.ledgerRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return "", ledger.ErrCreateTransaction
	}

	if err := repo.Ledger.CreateTransaction(ctx, transaction); err != nil {
		return "", ledger.ErrCreateTransaction
	}

	s.log.WithFields(log.Fields{
		"request_id": requestID,
		"id":         id,
		"scope":      req.Scope,
		"wallet":     wallet,
		"amount":     req.Amount,
	}).Info("Ledger transaction committed")

	return id, nil
}

func (s *ledgerService) GetRecentTransactions(ctx context.Context, limit int) ([]entity.LedgerTransaction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	repo, err := s.ledgerRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	return repo.Ledger.GetRecentTransactions(ctx, limit)
}

func (s *ledgerService) GetTransactionsByScope(ctx context.Context, scope string, limit int) ([]entity.LedgerTransaction, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if scope != string(entity.ScopeOperational) && scope != string(entity.ScopeProject) {
		return nil, ledger.ErrInvalidScope
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	repo, err := s.ledgerRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	return repo.Ledger.GetTransactionsByScope(ctx, scope, limit)
}
