package ledgerService

import (
	"LedgerBot/internal/api/ledger"
	ledgerRepository "LedgerBot/internal/api/ledger/repository"
	"LedgerBot/internal/entity"
	"LedgerBot/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// ILedgerService is the transaction commit gateway: it accepts a fully
// resolved tuple from the classifier, resolves the wallet for the scope and
// writes the ledger row. Wallet resolution is this layer's concern, not the
// classifier's.
type ILedgerService interface {
	Commit(ctx context.Context, req ledger.CommitRequest) (string, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]entity.LedgerTransaction, error)
	GetTransactionsByScope(ctx context.Context, scope string, limit int) ([]entity.LedgerTransaction, error)
}

type ledgerService struct {
	log              *logrus.Logger
	ledgerRepository ledgerRepository.Repository
	utils            utils.IUtils
	walletByScope    map[entity.Scope]string
}

func New(log *logrus.Logger, lr ledgerRepository.Repository, utils utils.IUtils, walletByScope map[entity.Scope]string) ILedgerService {
	return &ledgerService{
		log:              log,
		ledgerRepository: lr,
		utils:            utils,
		walletByScope:    walletByScope,
	}
}
