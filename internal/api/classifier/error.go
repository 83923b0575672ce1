package classifier

import "LedgerBot/pkg/response"

var (
	ErrPatternNotFound   = response.NewError(404, "no learned pattern for template")
	ErrSessionNotFound   = response.NewError(404, "no pending session")
	ErrEmptyMessage      = response.NewError(400, "message carries no text or image")
	ErrMissingUser       = response.NewError(400, "user id is required")
	ErrReceiptUnreadable = response.NewError(422, "could not read receipt image")
	ErrStorePattern      = response.NewError(500, "failed to persist learned pattern")
	ErrStoreSession      = response.NewError(500, "failed to persist pending session")
)
