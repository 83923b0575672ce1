package classifier

import "LedgerBot/internal/entity"

// Config carries the tunable routing surface: thresholds and TTLs are data,
// not code, so deployments can adjust them without a rebuild.
type Config struct {
	ConfidenceHigh     float64 `koanf:"confidence_high"`
	ConfidenceMedium   float64 `koanf:"confidence_medium"`
	DialogTTLSeconds   int     `koanf:"dialog_ttl_seconds"`
	ConfirmTTLSeconds  int     `koanf:"confirm_ttl_seconds"`
	DedupWindowSeconds int     `koanf:"dedup_window_seconds"`
}

// DefaultConfig returns the tuned production defaults: AUTO at 0.85 and up,
// CONFIRM from 0.60, a 15 minute dialog TTL with a shorter 10 minute TTL for
// the bare confirmation primitive, and a 5 minute redelivery dedup window.
func DefaultConfig() Config {
	return Config{
		ConfidenceHigh:     0.85,
		ConfidenceMedium:   0.60,
		DialogTTLSeconds:   15 * 60,
		ConfirmTTLSeconds:  10 * 60,
		DedupWindowSeconds: 5 * 60,
	}
}

type ClassifyRequest struct {
	Text      string `json:"text" validate:"required,max=2000"`
	UserID    string `json:"user_id" validate:"required"`
	ChatID    string `json:"chat_id"`
	IsGroup   bool   `json:"is_group"`
	MessageID string `json:"message_id"`
}

// ReceiptRequest carries a receipt image when no multipart file is attached.
type ReceiptRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id"`
}

type ClassifyResponse struct {
	Action        string                 `json:"action"`
	Scope         string                 `json:"scope"`
	Confidence    float64                `json:"confidence"`
	Prompt        string                 `json:"prompt,omitempty"`
	Reply         string                 `json:"reply,omitempty"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	Signals       *entity.ContextSignals `json:"signals,omitempty"`
}

type PatternResponse struct {
	Template          string   `json:"template"`
	Scope             string   `json:"scope"`
	ConfirmationCount int      `json:"confirmation_count"`
	Examples          []string `json:"examples"`
	LastUpdated       string   `json:"last_updated"`
}

type StatsResponse struct {
	PendingSessions int64 `json:"pending_sessions"`
	LearnedPatterns int64 `json:"learned_patterns"`
}
