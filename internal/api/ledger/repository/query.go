package ledgerRepository

const (
	queryCreateTransaction = `
		INSERT INTO ledger_transactions (
			id,
			scope,
			wallet,
			project_name,
			amount,
			fee,
			description,
			source_user,
			source_chat,
			message_id,
			created_at,
			updated_at
		) VALUES (
			:id,
			:scope,
			:wallet,
			:project_name,
			:amount,
			:fee,
			:description,
			:source_user,
			:source_chat,
			:message_id,
			:created_at,
			:updated_at
		)
	`

	queryGetTransactionById = `
		SELECT
			id,
			scope,
			wallet,
			project_name,
			amount,
			fee,
			description,
			source_user,
			source_chat,
			message_id,
			created_at,
			updated_at
		FROM ledger_transactions
		WHERE id = :id
	`

	queryGetRecentTransactions = `
		SELECT
			id,
			scope,
			wallet,
			project_name,
			amount,
			fee,
			description,
			source_user,
			source_chat,
			message_id,
			created_at,
			updated_at
		FROM ledger_transactions
		ORDER BY created_at DESC
		LIMIT :limit
	`

	queryGetTransactionsByScope = `
		SELECT
			id,
			scope,
			wallet,
			project_name,
			amount,
			fee,
			description,
			source_user,
			source_chat,
			message_id,
			created_at,
			updated_at
		FROM ledger_transactions
		WHERE scope = :scope
		ORDER BY created_at DESC
		LIMIT :limit
	`
)
