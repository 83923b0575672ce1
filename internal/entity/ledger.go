package entity

import (
	"LedgerBot/internal/api/ledger"
	"time"
)

// LedgerTransaction is a fully resolved transaction accepted by the
// commit gateway. Scope routing is decided upstream by the classifier;
// wallet/company and project resolution are the gateway's concern.
type LedgerTransaction struct {
	ID          string    `json:"id"`
	Scope       string    `json:"scope"`
	Wallet      string    `json:"wallet"`
	ProjectName string    `json:"project_name"`
	Amount      int64     `json:"amount"`
	Fee         int64     `json:"fee"`
	Description string    `json:"description"`
	SourceUser  string    `json:"source_user"`
	SourceChat  string    `json:"source_chat"`
	MessageID   string    `json:"message_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *LedgerTransaction) Validate() error {
	if t.Scope != string(ScopeOperational) && t.Scope != string(ScopeProject) {
		return ledger.ErrInvalidScope
	}

	if t.Wallet == "" {
		return ledger.ErrMissingWallet
	}

	if t.Scope == string(ScopeProject) && t.ProjectName == "" {
		return ledger.ErrMissingProject
	}

	if t.Amount <= 0 {
		return ledger.ErrInvalidAmount
	}

	return nil
}
