package classifierService

import (
	"fmt"
	"regexp"
	"strings"

	"LedgerBot/internal/entity"
)

// route maps a fused confidence onto one of the terminal actions. Band
// lower bounds are inclusive: exactly HIGH commits, exactly MEDIUM confirms.
func (s *classifierService) route(scope entity.Scope, confidence float64, signals entity.ContextSignals) entity.ConfidenceDecision {
	if confidence >= s.config.ConfidenceHigh && entity.IsResolvedScope(scope) {
		return entity.ConfidenceDecision{
			Action:     entity.ActionAuto,
			Scope:      scope,
			Confidence: confidence,
		}
	}

	if confidence >= s.config.ConfidenceMedium && entity.IsResolvedScope(scope) {
		return entity.ConfidenceDecision{
			Action:     entity.ActionConfirm,
			Scope:      scope,
			Confidence: confidence,
			Prompt:     confirmationPrompt(scope, signals),
		}
	}

	return entity.ConfidenceDecision{
		Action:     entity.ActionAsk,
		Scope:      entity.ScopeAmbiguous,
		Confidence: confidence,
		Prompt:     clarificationPrompt(signals),
	}
}

// Prompts are deliberately plain text: no markup characters, so they render
// identically on every transport.

func confirmationPrompt(scope entity.Scope, signals entity.ContextSignals) string {
	if scope == entity.ScopeOperational {
		hint := ""
		if signals.Role == entity.RoleOffice && signals.RoleName != "" {
			hint = fmt.Sprintf(" (gaji %s)", signals.RoleName)
		}
		return fmt.Sprintf(`Ini untuk Operational Kantor%s, kan?
(Gaji staff, listrik, wifi, dll)

Balas:
1. Ya, Operational
2. Bukan, untuk Project`, hint)
	}

	hint := ""
	if signals.ProjectName != "" {
		hint = fmt.Sprintf(" (Project: %s)", signals.ProjectName)
	} else if signals.Role == entity.RoleField {
		hint = " (fee tukang lapangan)"
	}
	return fmt.Sprintf(`Ini untuk Project%s, kan?
(Material, upah tukang, dll)

Balas:
1. Ya, Project
2. Bukan, Operational`, hint)
}

func clarificationPrompt(signals entity.ContextSignals) string {
	keyword := ""
	if len(signals.MatchedKeywords) > 0 {
		keyword = signals.MatchedKeywords[0].Phrase
	}

	switch {
	case strings.Contains(keyword, "gaji"):
		return `Ini maksudnya gaji staff kantor atau bayar orang project?

1. Gaji Staff Kantor
   (Operational, gaji bulanan admin atau karyawan)
2. Fee/Upah Project
   (Bayar tukang atau pekerja lapangan)

Atau kasih detail lebih: "gaji admin" atau "gaji tukang Project X"`

	case strings.Contains(keyword, "bon"):
		return `Bon untuk apa nih?

1. Kasbon Tukang Project
   (Butuh nama project)
2. Bon Kantor
   (Konsumsi atau keperluan kantor)

Atau jelaskan: "bon tukang buat Project X" atau "bon makan kantor"`

	case strings.Contains(keyword, "bayar"), strings.Contains(keyword, "fee"):
		return `Bayar untuk apa?

1. Operational Kantor
   (Listrik, wifi, gaji staff, dll)
2. Project
   (Material, upah tukang, ongkir)

Kasih detail: "bayar PLN" atau "bayar tukang Project X"`
	}

	return `Ini untuk Operational Kantor atau Project?

1. Operational Kantor
   (Gaji staff, listrik, wifi, ATK, dll)
2. Project
   (Material, upah tukang, transport ke site)

Balas 1 atau 2, atau kasih detail lebih`
}

var (
	selectFirstRegex    = regexp.MustCompile(`(?:^|\s)1(?:$|[\s.)])`)
	selectSecondRegex   = regexp.MustCompile(`(?:^|\s)2(?:$|[\s.)])`)
	notOperationalRegex = regexp.MustCompile(`\b(bukan|tidak|gak|nggak)\s+(operational|operasional|kantor)\b`)
	notProjectRegex     = regexp.MustCompile(`\b(bukan|tidak|gak|nggak)\s+(project|proyek)\b`)
	affirmationRegex    = regexp.MustCompile(`\b(ya|iya|yes|benar|betul|ok|oke|sip)\b`)
	negationRegex       = regexp.MustCompile(`\b(bukan|tidak|salah|gak|nggak)\b`)
)

// parseUserResponse reads a short reply against the pending session.
// Numbered replies follow the prompt that asked them: confirmation prompts
// number 1 as "yes, keep the suggestion" and 2 as its opposite, while the
// clarification prompt numbers the scopes absolutely (1 operational,
// 2 project). Explicit scope words are always absolute; a bare affirmation
// resolves to the suggested scope and a bare negation to its opposite.
// Anything else means "treat as a new message" and returns false.
func parseUserResponse(text string, suggested entity.Scope, kind entity.SessionKind) (entity.Scope, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	confirmStyle := (kind == entity.SessionConfirm || kind == entity.SessionOCRConfirm) &&
		entity.IsResolvedScope(suggested)

	if selectFirstRegex.MatchString(lower) {
		if confirmStyle {
			return suggested, true
		}
		return entity.ScopeOperational, true
	}
	if selectSecondRegex.MatchString(lower) {
		if confirmStyle {
			return oppositeScope(suggested), true
		}
		return entity.ScopeProject, true
	}

	// "bukan operational" means project and vice versa; the adjacency
	// requirement keeps "bukan, untuk project" reading as project.
	if notOperationalRegex.MatchString(lower) {
		return entity.ScopeProject, true
	}
	if notProjectRegex.MatchString(lower) {
		return entity.ScopeOperational, true
	}

	if strings.Contains(lower, "operational") || strings.Contains(lower, "operasional") || strings.Contains(lower, "kantor") {
		return entity.ScopeOperational, true
	}
	if strings.Contains(lower, "project") || strings.Contains(lower, "proyek") {
		return entity.ScopeProject, true
	}

	if entity.IsResolvedScope(suggested) {
		if negationRegex.MatchString(lower) {
			return oppositeScope(suggested), true
		}
		if affirmationRegex.MatchString(lower) {
			return suggested, true
		}
	}

	return entity.ScopeAmbiguous, false
}

func oppositeScope(scope entity.Scope) entity.Scope {
	if scope == entity.ScopeOperational {
		return entity.ScopeProject
	}
	return entity.ScopeOperational
}
