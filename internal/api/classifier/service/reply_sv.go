package classifierService

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/context"

	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/log"
)

var cancelCommands = []string{"/cancel", "batal", "cancel"}

var bareSelectionRegex = regexp.MustCompile(`^\s*[12]\s*$`)

func isCancelCommand(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, cmd := range cancelCommands {
		if lower == cmd {
			return true
		}
	}
	return false
}

// handleReply resolves a pending session with the user's short answer. A
// reply that parses to a scope commits the transaction and feeds the
// learner; anything else is treated as a brand-new message and re-classified
// from scratch, with the old session cleared first so no stale state leaks.
func (s *classifierService) handleReply(ctx context.Context, msg entity.InboundMessage, text string, session entity.PendingSession) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)
	sessionKey := entity.PendingKey(session.UserID, session.ChatID)

	scope, parsed := parseUserResponse(text, session.SuggestedScope, session.Kind)
	if !parsed {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"user_id":    msg.UserID,
		}).Debug("Reply did not parse as selection, re-classifying as new message")

		s.deleteSession(ctx, sessionKey)
		return s.handleNewMessage(ctx, msg, text)
	}

	s.deleteSession(ctx, sessionKey)

	s.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    msg.UserID,
		"scope":      scope,
		"kind":       session.Kind,
	}).Info("Pending session resolved by user reply")

	s.recordConfirmation(ctx, session.OriginalText, scope)

	reply, _ := s.commitResolved(ctx, msg, session.OriginalText, scope, session.Signals)
	return reply, nil
}

// storePendingSession creates or overwrites the single pending session for
// this user/chat. Storage failure degrades to session-less operation: the
// prompt still goes out, the user may just have to resend instead of
// replying tersely.
func (s *classifierService) storePendingSession(ctx context.Context, msg entity.InboundMessage, text string, decision entity.ConfidenceDecision, signals entity.ContextSignals) {
	requestID := contextPkg.GetRequestID(ctx)

	kind := entity.SessionAsk
	ttl := s.config.DialogTTLSeconds
	if decision.Action == entity.ActionConfirm {
		kind = entity.SessionConfirm
		ttl = s.config.ConfirmTTLSeconds
	}
	if msg.ImageBase64 != "" {
		kind = entity.SessionOCRConfirm
		ttl = s.config.ConfirmTTLSeconds
	}

	session := entity.PendingSession{
		UserID:         msg.UserID,
		ChatID:         msg.ChatID,
		OriginalText:   text,
		SuggestedScope: decision.Scope,
		Kind:           kind,
		Signals:        signals,
		CreatedAt:      time.Now(),
		TTLSeconds:     ttl,
	}

	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return
	}

	if err := repo.Session.SaveSession(ctx, session); err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"user_id":    msg.UserID,
		}).Warn("Pending session not persisted, degrading to session-less prompt")
	}
}

func (s *classifierService) getSession(ctx context.Context, key string) (entity.PendingSession, bool) {
	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return entity.PendingSession{}, false
	}

	session, err := repo.Session.GetSession(ctx, key)
	if err != nil {
		return entity.PendingSession{}, false
	}

	return session, true
}

func (s *classifierService) deleteSession(ctx context.Context, key string) {
	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return
	}
	if err := repo.Session.DeleteSession(ctx, key); err != nil {
		s.log.WithFields(log.Fields{
			"error": err.Error(),
			"key":   key,
		}).Warn("Failed to delete pending session")
	}
}
