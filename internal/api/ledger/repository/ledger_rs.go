package ledgerRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"LedgerBot/internal/api/ledger"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
)

type LedgerTransactionDB struct {
	ID          sql.NullString `db:"id"`
	Scope       sql.NullString `db:"scope"`
	Wallet      sql.NullString `db:"wallet"`
	ProjectName sql.NullString `db:"project_name"`
	Amount      sql.NullInt64  `db:"amount"`
	Fee         sql.NullInt64  `db:"fee"`
	Description sql.NullString `db:"description"`
	SourceUser  sql.NullString `db:"source_user"`
	SourceChat  sql.NullString `db:"source_chat"`
	MessageID   sql.NullString `db:"message_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *ledgerRepository) CreateTransaction(c context.Context, transaction entity.LedgerTransaction) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":           transaction.ID,
		"scope":        transaction.Scope,
		"wallet":       transaction.Wallet,
		"project_name": transaction.ProjectName,
		"amount":       transaction.Amount,
		"fee":          transaction.Fee,
		"description":  transaction.Description,
		"source_user":  transaction.SourceUser,
		"source_chat":  transaction.SourceChat,
		"message_id":   transaction.MessageID,
		"created_at":   time.Now(),
		"updated_at":   time.Now(),
	}

	query, args, err := sqlx.Named(queryCreateTransaction, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateTransaction")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating ledger transaction")

		return err
	}

	return nil
}

func (r *ledgerRepository) GetTransactionByID(c context.Context, id string) (entity.LedgerTransaction, error) {
	requestID := contextPkg.GetRequestID(c)
	var transaction LedgerTransactionDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetTransactionById, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTransactionByID named query preparation err")

		return entity.LedgerTransaction{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&transaction); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("GetTransactionByID no rows found")
			return entity.LedgerTransaction{}, ledger.ErrTransactionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTransactionByID execution err")
		return entity.LedgerTransaction{}, err
	}

	return makeLedgerTransaction(transaction), nil
}

func (r *ledgerRepository) GetRecentTransactions(c context.Context, limit int) ([]entity.LedgerTransaction, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []LedgerTransactionDB

	argsKV := map[string]interface{}{
		"limit": limit,
	}

	query, args, err := sqlx.Named(queryGetRecentTransactions, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRecentTransactions named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRecentTransactions execution err")
		return nil, err
	}

	transactions := make([]entity.LedgerTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, makeLedgerTransaction(row))
	}

	return transactions, nil
}

func (r *ledgerRepository) GetTransactionsByScope(c context.Context, scope string, limit int) ([]entity.LedgerTransaction, error) {
	requestID := contextPkg.GetRequestID(c)
	var rows []LedgerTransactionDB

	argsKV := map[string]interface{}{
		"scope": scope,
		"limit": limit,
	}

	query, args, err := sqlx.Named(queryGetTransactionsByScope, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTransactionsByScope named query preparation err")
		return nil, err
	}

	query = r.q.Rebind(query)

	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetTransactionsByScope execution err")
		return nil, err
	}

	transactions := make([]entity.LedgerTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, makeLedgerTransaction(row))
	}

	return transactions, nil
}

func makeLedgerTransaction(row LedgerTransactionDB) entity.LedgerTransaction {
	return entity.LedgerTransaction{
		ID:          row.ID.String,
		Scope:       row.Scope.String,
		Wallet:      row.Wallet.String,
		ProjectName: row.ProjectName.String,
		Amount:      row.Amount.Int64,
		Fee:         row.Fee.Int64,
		Description: row.Description.String,
		SourceUser:  row.SourceUser.String,
		SourceChat:  row.SourceChat.String,
		MessageID:   row.MessageID.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
