package classifierService

import (
	"fmt"
	"strconv"

	"golang.org/x/net/context"

	"LedgerBot/internal/api/ledger"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/log"
)

// ClassifyText fuses all layers into a routed decision for one message:
// heuristic detection, learned-pattern boost, then the external semantic
// classifier when the heuristics are weak. The external call fails open to
// the heuristic verdict; a subsystem outage degrades the action, never
// crashes the pipeline.
func (s *classifierService) ClassifyText(ctx context.Context, text string, userID string) (entity.ConfidenceDecision, entity.ContextSignals) {
	requestID := contextPkg.GetRequestID(ctx)

	signals := s.detector.Detect(text)

	if !s.detector.HasTransactionSignal(text) {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"user_id":    userID,
		}).Debug("No transaction signal, ignoring message")
		return entity.ConfidenceDecision{
			Action:     entity.ActionIgnore,
			Scope:      entity.ScopeAmbiguous,
			Confidence: signals.RawConfidence,
		}, signals
	}

	scope := signals.ScopeVote
	confidence := signals.RawConfidence

	if match, ok := s.lookupPattern(ctx, text); ok {
		confidence = clampConfidence(confidence + match.boost)
		if scope == entity.ScopeAmbiguous {
			scope = match.scope
		}
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"boost":      match.boost,
			"fuzzy":      match.fuzzy,
			"scope":      scope,
		}).Debug("Learned pattern boosted confidence")
	}

	if s.semantic != nil && (scope == entity.ScopeAmbiguous || confidence < s.config.ConfidenceHigh) {
		verdict, err := s.semantic.ClassifyScope(ctx, text, signals)
		switch {
		case err != nil:
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Semantic classifier unavailable, falling back to heuristics")
		case scope == entity.ScopeAmbiguous && entity.IsResolvedScope(verdict.Scope):
			scope = verdict.Scope
			confidence = clampConfidence(verdict.Confidence)
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"scope":      scope,
				"confidence": confidence,
				"reasoning":  verdict.Reasoning,
			}).Debug("Semantic classifier resolved ambiguous scope")
		case verdict.Scope == scope && verdict.Confidence > confidence:
			confidence = clampConfidence(verdict.Confidence)
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"confidence": confidence,
			}).Debug("Semantic classifier corroborated heuristic scope")
		}
	}

	decision := s.route(scope, confidence, signals)

	s.log.WithFields(log.Fields{
		"request_id": requestID,
		"user_id":    userID,
		"action":     decision.Action,
		"scope":      decision.Scope,
		"confidence": decision.Confidence,
		"reasoning":  signals.Reasoning,
	}).Info("Message classified")

	return decision, signals
}

// commitResolved writes a resolved classification to the ledger and builds
// the user-facing acknowledgement.
func (s *classifierService) commitResolved(ctx context.Context, msg entity.InboundMessage, originalText string, scope entity.Scope, signals entity.ContextSignals) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !signals.HasAmount {
		return "Nominalnya belum kebaca. Kirim ulang dengan nominalnya ya, contoh: \"" + originalText + " 150rb\"", nil
	}

	projectName := ""
	if scope == entity.ScopeProject {
		projectName = signals.ProjectName
		if projectName == "" {
			projectName = "Umum"
		}
	}

	transactionID, err := s.ledgerService.Commit(ctx, ledger.CommitRequest{
		Scope:       string(scope),
		ProjectName: projectName,
		Amount:      signals.Amount,
		Fee:         signals.Fee,
		Description: originalText,
		SourceUser:  msg.UserID,
		SourceChat:  msg.ChatID,
		MessageID:   msg.MessageID,
	})
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"scope":      scope,
		}).Error("Ledger commit failed")
		return "Transaksi gagal dicatat, coba lagi sebentar lagi ya.", err
	}

	reply := fmt.Sprintf("Tercatat: %s\nScope: %s\nNominal: Rp %s",
		originalText, scopeLabel(scope), formatRupiah(signals.Amount))
	if signals.Fee > 0 {
		reply += fmt.Sprintf("\nBiaya admin: Rp %s", formatRupiah(signals.Fee))
	}
	if projectName != "" {
		reply += fmt.Sprintf("\nProject: %s", projectName)
	}
	reply += fmt.Sprintf("\nID: %s", transactionID)

	return reply, nil
}

func scopeLabel(scope entity.Scope) string {
	if scope == entity.ScopeOperational {
		return "Operational Kantor"
	}
	return "Project"
}

func formatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}
	return string(out)
}

func clampConfidence(confidence float64) float64 {
	if confidence > 1.0 {
		return 1.0
	}
	if confidence < 0 {
		return 0
	}
	return confidence
}
