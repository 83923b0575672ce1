package ledger

// CommitRequest is the fully resolved tuple the gateway accepts. Scope is
// decided upstream by the classifier; the gateway owns wallet resolution.
type CommitRequest struct {
	Scope       string `json:"scope" validate:"required,oneof=OPERATIONAL PROJECT"`
	ProjectName string `json:"project_name" validate:"omitempty,max=120"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Fee         int64  `json:"fee" validate:"omitempty,gte=0"`
	Description string `json:"description" validate:"required,max=500"`
	SourceUser  string `json:"source_user" validate:"required"`
	SourceChat  string `json:"source_chat"`
	MessageID   string `json:"message_id"`
}

type TransactionResponse struct {
	ID          string `json:"id"`
	Scope       string `json:"scope"`
	Wallet      string `json:"wallet"`
	ProjectName string `json:"project_name,omitempty"`
	Amount      int64  `json:"amount"`
	Fee         int64  `json:"fee,omitempty"`
	Description string `json:"description"`
	SourceUser  string `json:"source_user"`
	CreatedAt   string `json:"created_at"`
}
