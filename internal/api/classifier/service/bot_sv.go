package classifierService

import (
	"strings"
	"time"

	"golang.org/x/net/context"

	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/log"
)

// Group chats only get a reaction when the message carries a trigger
// prefix, starts with a slash command, or quotes one of the bot's own
// prompts. Private chats always process.
var groupTriggers = []string{"+catat", "+bot", "+input", "/catat"}

func shouldRespondInGroup(text string, isGroup bool, quotesBotPrompt bool) (bool, string) {
	if !isGroup {
		return true, text
	}

	if quotesBotPrompt {
		return true, text
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	for _, trigger := range groupTriggers {
		if strings.HasPrefix(lower, trigger) {
			return true, strings.TrimSpace(text[len(trigger):])
		}
	}

	if strings.HasPrefix(lower, "/") {
		return true, text
	}

	return false, ""
}

// HandleInbound runs the full per-message flow and returns the reply text
// to deliver, empty string meaning stay silent. No error from a subsystem
// ever escapes to the transport: every failure path resolves to a reply or
// to silence.
func (s *classifierService) HandleInbound(ctx context.Context, msg entity.InboundMessage) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if msg.MessageID != "" && !s.markSeen(ctx, msg.MessageID) {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"message_id": msg.MessageID,
		}).Debug("Duplicate delivery dropped")
		return "", nil
	}

	text := msg.Text

	if text == "" && msg.ImageBase64 != "" {
		extracted, err := s.extractReceipt(ctx, msg)
		if err != nil {
			return "Gambarnya tidak kebaca sebagai bukti transaksi. Bisa ketik manual saja?", nil
		}
		text = extracted
	}

	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	sessionKey := entity.PendingKey(msg.UserID, msg.ChatID)
	session, hasSession := s.getSession(ctx, sessionKey)

	quotesBotPrompt := hasSession && msg.ReplyToMessageID != "" && msg.ReplyToMessageID == session.PromptMessageID
	respond, cleaned := shouldRespondInGroup(text, msg.IsGroup, quotesBotPrompt)
	if !respond {
		return "", nil
	}
	text = cleaned

	if isCancelCommand(text) {
		if hasSession {
			s.deleteSession(ctx, sessionKey)
			return "Oke, dibatalkan.", nil
		}
		return "Tidak ada transaksi yang menunggu konfirmasi.", nil
	}

	if hasSession {
		return s.handleReply(ctx, msg, text, session)
	}

	// A bare "1"/"2" with no live session is a reply to a question that
	// already expired; say so instead of silently misreading it.
	if bareSelectionRegex.MatchString(text) {
		return "Tidak ada pertanyaan aktif. Kirim ulang transaksinya ya.", nil
	}

	return s.handleNewMessage(ctx, msg, text)
}

// handleNewMessage classifies fresh text and acts on the routed decision.
func (s *classifierService) handleNewMessage(ctx context.Context, msg entity.InboundMessage, text string) (string, error) {
	decision, signals := s.ClassifyText(ctx, text, msg.UserID)

	// Receipt transcriptions never auto-commit: the user confirms what the
	// model read before it reaches the ledger.
	if decision.Action == entity.ActionAuto && msg.ImageBase64 != "" {
		decision.Action = entity.ActionConfirm
		decision.Prompt = confirmationPrompt(decision.Scope, signals)
	}

	switch decision.Action {
	case entity.ActionIgnore:
		return "", nil

	case entity.ActionAuto:
		s.recordConfirmation(ctx, text, decision.Scope)
		reply, _ := s.commitResolved(ctx, msg, text, decision.Scope, signals)
		return reply, nil

	default:
		s.storePendingSession(ctx, msg, text, decision, signals)
		return decision.Prompt, nil
	}
}

// HandleTransportMessage is the whatsmeow event-loop entry point: it builds
// a traced context, runs the pipeline and delivers the reply, then records
// the sent prompt ID on the session for group reply threading.
func (s *classifierService) HandleTransportMessage(msg entity.InboundMessage) {
	requestID := msg.MessageID
	if requestID == "" {
		requestID = "transport"
	}

	ctx, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), 30*time.Second)
	defer cancel()

	reply, err := s.HandleInbound(ctx, msg)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Inbound handling failed")
		return
	}

	if reply == "" || s.sender == nil {
		return
	}

	sentID, err := s.sender.SendMessage(ctx, msg.ChatID, reply)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"chat_id":    msg.ChatID,
		}).Error("Failed to send reply")
		return
	}

	sessionKey := entity.PendingKey(msg.UserID, msg.ChatID)
	if _, hasSession := s.getSession(ctx, sessionKey); hasSession {
		if repo, err := s.classifierRepository.NewClient(); err == nil {
			_ = repo.Session.SetPromptMessageID(ctx, sessionKey, sentID)
		}
	}
}

func (s *classifierService) markSeen(ctx context.Context, messageID string) bool {
	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return true
	}

	window := time.Duration(s.config.DedupWindowSeconds) * time.Second
	first, err := repo.Dedup.MarkSeen(ctx, messageID, window)
	if err != nil {
		// Fail open: losing dedup risks a double reply, losing the
		// message risks a silent drop. The former is recoverable.
		return true
	}

	return first
}

func (s *classifierService) extractReceipt(ctx context.Context, msg entity.InboundMessage) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.gemini == nil {
		return "", classifier.ErrReceiptUnreadable
	}

	text, err := s.gemini.ExtractReceiptText(ctx, msg.ImageBase64)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Receipt OCR failed")
		return "", err
	}

	s.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    msg.UserID,
		"text":       text,
	}).Info("Receipt transcribed")

	return text, nil
}
