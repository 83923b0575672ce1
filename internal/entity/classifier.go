package entity

import (
	"time"
)

type Scope string

const (
	ScopeOperational Scope = "OPERATIONAL"
	ScopeProject     Scope = "PROJECT"
	ScopeAmbiguous   Scope = "AMBIGUOUS"
)

func IsResolvedScope(scope Scope) bool {
	return scope == ScopeOperational || scope == ScopeProject
}

type Action string

const (
	ActionAuto    Action = "AUTO"
	ActionConfirm Action = "CONFIRM"
	ActionAsk     Action = "ASK"
	ActionIgnore  Action = "IGNORE"
)

type RoleClass string

const (
	RoleOffice RoleClass = "office"
	RoleField  RoleClass = "field"
	RoleNone   RoleClass = "none"
)

type TemporalClass string

const (
	TemporalMonthly TemporalClass = "monthly"
	TemporalAdHoc   TemporalClass = "ad_hoc"
	TemporalNone    TemporalClass = "none"
)

// InboundMessage is the transport-neutral inbound contract. Transport
// adapters (WhatsApp, webhook) map their payloads into this shape.
type InboundMessage struct {
	MessageID        string    `json:"message_id"`
	Text             string    `json:"text"`
	UserID           string    `json:"user_id"`
	ChatID           string    `json:"chat_id"`
	IsGroup          bool      `json:"is_group"`
	ReplyToMessageID string    `json:"reply_to_message_id"`
	ImageBase64      string    `json:"image_base64"`
	Timestamp        time.Time `json:"timestamp"`
}

type KeywordMatch struct {
	Phrase string  `json:"phrase"`
	Scope  Scope   `json:"scope"`
	Weight float64 `json:"weight"`
}

// ContextSignals is the evidence bundle produced by the context detector
// for a single message. It is created fresh per message and never mutated.
type ContextSignals struct {
	ScopeVote       Scope          `json:"scope_vote"`
	RawConfidence   float64        `json:"raw_confidence"`
	MatchedKeywords []KeywordMatch `json:"matched_keywords"`
	Role            RoleClass      `json:"role"`
	RoleName        string         `json:"role_name"`
	ProjectName     string         `json:"project_name"`
	Temporal        TemporalClass  `json:"temporal"`
	HasAmount       bool           `json:"has_amount"`
	Amount          int64          `json:"amount"`
	Fee             int64          `json:"fee"`
	Reasoning       string         `json:"reasoning"`
}

type ConfidenceDecision struct {
	Action     Action  `json:"action"`
	Scope      Scope   `json:"scope"`
	Confidence float64 `json:"confidence"`
	Prompt     string  `json:"prompt,omitempty"`
}

type SessionKind string

const (
	SessionConfirm    SessionKind = "CONFIRM"
	SessionAsk        SessionKind = "ASK"
	SessionSelection  SessionKind = "SELECTION"
	SessionOCRConfirm SessionKind = "OCR_CONFIRM"
	SessionRevision   SessionKind = "REVISION"
)

// PendingSession holds one unresolved classification awaiting a user reply.
// At most one active session exists per (user_id, chat_id) key.
type PendingSession struct {
	UserID          string         `json:"user_id"`
	ChatID          string         `json:"chat_id"`
	OriginalText    string         `json:"original_text"`
	SuggestedScope  Scope          `json:"suggested_scope"`
	Kind            SessionKind    `json:"kind"`
	Signals         ContextSignals `json:"signals"`
	PromptMessageID string         `json:"prompt_message_id"`
	CreatedAt       time.Time      `json:"created_at"`
	TTLSeconds      int            `json:"ttl_seconds"`
}

// IsExpired reports whether the session is stale at the given instant.
// Expiry is checked lazily on read; stale sessions are treated as absent.
func (s *PendingSession) IsExpired(now time.Time) bool {
	if s.CreatedAt.IsZero() || s.TTLSeconds <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > time.Duration(s.TTLSeconds)*time.Second
}

func PendingKey(userID, chatID string) string {
	if chatID == "" {
		return userID
	}
	return chatID + ":" + userID
}

const MaxPatternExamples = 3

// LearnedPattern is a normalized message template with its confirmed scope.
// ConfirmationCount is monotonically non-decreasing; patterns are never
// deleted automatically, only by administrative purge.
type LearnedPattern struct {
	Template          string    `json:"template"`
	Scope             Scope     `json:"scope"`
	ConfirmationCount int       `json:"confirmation_count"`
	Examples          []string  `json:"examples"`
	LastUpdated       time.Time `json:"last_updated"`
}

// AddExample appends an original text sample, capped at MaxPatternExamples
// with the oldest dropped first. Duplicates are ignored.
func (p *LearnedPattern) AddExample(text string) {
	for _, example := range p.Examples {
		if example == text {
			return
		}
	}
	p.Examples = append(p.Examples, text)
	if len(p.Examples) > MaxPatternExamples {
		p.Examples = p.Examples[len(p.Examples)-MaxPatternExamples:]
	}
}
