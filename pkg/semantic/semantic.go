package semantic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"LedgerBot/internal/entity"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
	defaultTimeout = 10 * time.Second
)

// Verdict is the external classifier's judgment on a single message.
type Verdict struct {
	Scope      entity.Scope `json:"scope"`
	Confidence float64      `json:"confidence"`
	Reasoning  string       `json:"reasoning"`
}

// ISemantic is the black-box semantic classifier consulted when the
// heuristic layers are weak. Callers must tolerate errors: the pipeline
// fails open to the heuristic verdict.
type ISemantic interface {
	ClassifyScope(ctx context.Context, text string, signals entity.ContextSignals) (Verdict, error)
}

type semanticClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New builds a classifier against any OpenAI-compatible endpoint. Defaults
// target Groq's hosted Llama models.
func New() (ISemantic, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, errors.New("groq API key is required")
	}

	baseURL := os.Getenv("GROQ_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := os.Getenv("GROQ_MODEL_NAME")
	if model == "" {
		model = defaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &semanticClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: defaultTimeout,
	}, nil
}

const systemPrompt = `You are a bookkeeping scope classifier for an Indonesian construction company.
Classify a chat message into one of two accounting scopes:
- OPERATIONAL: office payroll, utilities, office supplies, recurring office costs
- PROJECT: field labor wages, construction materials, logistics, per-project spending

Respond with a JSON object: {"scope": "OPERATIONAL"|"PROJECT"|"AMBIGUOUS", "confidence": 0.0-1.0, "reasoning": "one short sentence"}.
Use AMBIGUOUS only when the message genuinely supports both readings.`

func (s *semanticClient) ClassifyScope(ctx context.Context, text string, signals entity.ContextSignals) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.1,
		MaxTokens:   400,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, signals)},
		},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("semantic classification failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Verdict{}, errors.New("semantic classifier returned no choices")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return Verdict{}, err
	}

	return verdict, nil
}

// buildPrompt packs the heuristic pre-analysis into the user message so the
// model grounds its judgment on the same clues instead of re-deriving them.
func buildPrompt(text string, signals entity.ContextSignals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %q\n", text)
	fmt.Fprintf(&b, "Heuristic vote: %s (confidence %.2f)\n", signals.ScopeVote, signals.RawConfidence)
	if signals.Role != entity.RoleNone {
		fmt.Fprintf(&b, "Role mentioned: %s (%s)\n", signals.RoleName, signals.Role)
	}
	if signals.ProjectName != "" {
		fmt.Fprintf(&b, "Possible project name: %s\n", signals.ProjectName)
	}
	if signals.Temporal != entity.TemporalNone {
		fmt.Fprintf(&b, "Temporal pattern: %s\n", signals.Temporal)
	}
	if signals.HasAmount {
		fmt.Fprintf(&b, "Amount: %d\n", signals.Amount)
	}
	return b.String()
}

func parseVerdict(content string) (Verdict, error) {
	var raw struct {
		Scope      string  `json:"scope"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := unmarshalJSON(content, &raw); err != nil {
		return Verdict{}, fmt.Errorf("unparseable semantic verdict: %w", err)
	}

	scope := entity.Scope(strings.ToUpper(strings.TrimSpace(raw.Scope)))
	switch scope {
	case entity.ScopeOperational, entity.ScopeProject, entity.ScopeAmbiguous:
	default:
		return Verdict{}, fmt.Errorf("semantic verdict carries unknown scope %q", raw.Scope)
	}

	if raw.Confidence < 0 || raw.Confidence > 1 {
		return Verdict{}, fmt.Errorf("semantic verdict confidence %f out of range", raw.Confidence)
	}

	return Verdict{Scope: scope, Confidence: raw.Confidence, Reasoning: raw.Reasoning}, nil
}
