package detector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"LedgerBot/internal/entity"
)

var operationalTemporalPatterns = []string{
	`bulan (ini|lalu|januari|februari|maret|april|mei|juni|juli|agustus|september|oktober|november|desember)`,
	`gaji bulan`,
	`bulanan`,
	`per bulan`,
	`setiap bulan`,
	`recurring`,
}

var projectTemporalPatterns = []string{
	`(hari|hr) ini`,
	`kemarin`,
	`tadi`,
	`barusan`,
	`minggu (ini|lalu|kemarin)`,
	`untuk (hari|hr) ini`,
}

var projectPrepositionPatterns = []string{
	`untuk ([A-Z][A-Za-z\s]+)`,
	`buat ([A-Z][A-Za-z\s]+)`,
	`di ([A-Z][A-Za-z\s]+)`,
	`([A-Z][A-Za-z\s]+) [Pp]roject`,
}

var operationalPrepositionPatterns = []string{
	`(di|untuk|buat) kantor`,
	`(di|untuk) office`,
	`keperluan kantor`,
	` kantor$`,
	`^kantor `,
}

type contextDetector struct {
	index SignalIndex

	operationalKeywords []entity.KeywordMatch
	projectKeywords     []entity.KeywordMatch
	blacklist           map[string]bool

	operationalTemporal []*regexp.Regexp
	projectTemporal     []*regexp.Regexp
	projectPreposition  []*regexp.Regexp
	operationalPrep     []*regexp.Regexp
}

// New builds a detector over the given signal index. The weighted keyword
// maps are flattened into slices sorted by weight descending (phrase as
// tie-break) so detection order is deterministic run to run.
func New(index SignalIndex) IDetector {
	d := &contextDetector{
		index:               index,
		operationalKeywords: sortKeywords(index.Operational, entity.ScopeOperational),
		projectKeywords:     sortKeywords(index.Project, entity.ScopeProject),
		blacklist:           make(map[string]bool, len(index.ProjectBlacklist)),
		operationalTemporal: compileAll(operationalTemporalPatterns),
		projectTemporal:     compileAll(projectTemporalPatterns),
		projectPreposition:  compileAllCased(projectPrepositionPatterns),
		operationalPrep:     compileAll(operationalPrepositionPatterns),
	}

	for _, word := range index.ProjectBlacklist {
		d.blacklist[word] = true
	}

	return d
}

func sortKeywords(weights map[string]float64, scope entity.Scope) []entity.KeywordMatch {
	keywords := make([]entity.KeywordMatch, 0, len(weights))
	for phrase, weight := range weights {
		keywords = append(keywords, entity.KeywordMatch{Phrase: phrase, Scope: scope, Weight: weight})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Weight != keywords[j].Weight {
			return keywords[i].Weight > keywords[j].Weight
		}
		return keywords[i].Phrase < keywords[j].Phrase
	})
	return keywords
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

func compileAllCased(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Detect runs the layered analysis: keyword vote, context clues (role,
// project name, temporal, preposition), then the decision table that fuses
// them into a scope vote with a raw confidence and a reasoning trail.
func (d *contextDetector) Detect(text string) entity.ContextSignals {
	lower := d.cleanText(text)

	keyword := d.detectKeyword(lower)
	role, roleName := d.extractRole(lower)
	projectName := d.ExtractProjectName(text)
	temporal := d.detectTemporal(lower)
	d.detectOperationalPreposition(lower)

	signals := entity.ContextSignals{
		Role:        role,
		RoleName:    roleName,
		ProjectName: projectName,
		Temporal:    temporal,
	}
	if keyword.matched {
		signals.MatchedKeywords = []entity.KeywordMatch{{
			Phrase: keyword.phrase,
			Scope:  keyword.scope,
			Weight: keyword.weight,
		}}
	}

	if amount, ok := ParseAmount(text); ok {
		signals.HasAmount = true
		signals.Amount = amount
		if fee, feeOK := ParseFee(text, amount); feeOK {
			signals.Fee = fee
		}
	}

	d.decide(&signals, keyword)

	return signals
}

// HasTransactionSignal is the cheap pre-filter: a message with neither an
// amount shape nor any vocabulary hit is casual chat, not a transaction.
func (d *contextDetector) HasTransactionSignal(text string) bool {
	if HasAmountSignal(text) {
		return true
	}
	lower := d.cleanText(text)
	return d.detectKeyword(lower).matched
}

type keywordResult struct {
	matched bool
	scope   entity.Scope
	phrase  string
	weight  float64
}

// detectKeyword picks the single best vocabulary hit. Operational phrases
// are consulted before project phrases, matching the priority of the
// curated index; within a scope the highest weight wins.
func (d *contextDetector) detectKeyword(lower string) keywordResult {
	for _, kw := range d.operationalKeywords {
		if strings.Contains(lower, kw.Phrase) {
			return keywordResult{matched: true, scope: entity.ScopeOperational, phrase: kw.Phrase, weight: kw.Weight}
		}
	}

	for _, kw := range d.projectKeywords {
		if strings.Contains(lower, kw.Phrase) {
			return keywordResult{matched: true, scope: entity.ScopeProject, phrase: kw.Phrase, weight: kw.Weight}
		}
	}

	for _, phrase := range d.index.Ambiguous {
		if strings.Contains(lower, phrase) {
			return keywordResult{matched: true, scope: entity.ScopeAmbiguous, phrase: phrase, weight: 0.40}
		}
	}

	return keywordResult{}
}

func (d *contextDetector) extractRole(lower string) (entity.RoleClass, string) {
	for _, role := range d.index.OfficeRoles {
		if strings.Contains(lower, role) {
			return entity.RoleOffice, role
		}
	}
	for _, role := range d.index.FieldRoles {
		if strings.Contains(lower, role) {
			return entity.RoleField, role
		}
	}
	return entity.RoleNone, ""
}

// ExtractProjectName pulls a plausible project name: preposition phrases
// first ("untuk Wooftopia"), then consecutive capitalized words, with the
// blacklist filtering out verbs and particles that merely start a sentence
// capitalized.
func (d *contextDetector) ExtractProjectName(text string) string {
	for _, pattern := range d.projectPreposition {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(name) > 3 && !d.blacklist[strings.ToLower(name)] {
			return name
		}
	}

	var capitalized []string
	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		if len(runes) <= 2 || !unicode.IsUpper(runes[0]) {
			continue
		}
		if d.blacklist[strings.ToLower(word)] {
			continue
		}
		capitalized = append(capitalized, word)
		if len(capitalized) == 3 {
			break
		}
	}

	return strings.Join(capitalized, " ")
}

func (d *contextDetector) detectTemporal(lower string) entity.TemporalClass {
	for _, pattern := range d.operationalTemporal {
		if pattern.MatchString(lower) {
			return entity.TemporalMonthly
		}
	}
	for _, pattern := range d.projectTemporal {
		if pattern.MatchString(lower) {
			return entity.TemporalAdHoc
		}
	}
	return entity.TemporalNone
}

func (d *contextDetector) detectOperationalPreposition(lower string) bool {
	for _, pattern := range d.operationalPrep {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// decide fuses the extracted signals into the final scope vote. The cases
// mirror the curated decision table: strong keywords resolve immediately
// with small corroboration boosts, ambiguous keywords defer to role and
// project clues, and with no keyword at all the clues carry less weight.
func (d *contextDetector) decide(signals *entity.ContextSignals, keyword keywordResult) {
	var reasons []string

	switch {
	case keyword.scope == entity.ScopeOperational && keyword.weight >= StrongSignalThreshold:
		confidence := keyword.weight
		reasons = append(reasons, fmt.Sprintf("strong operational keyword: %q", keyword.phrase))
		if signals.Role == entity.RoleOffice {
			confidence = clamp(confidence + 0.05)
			reasons = append(reasons, fmt.Sprintf("office role: %q", signals.RoleName))
		}
		if signals.Temporal == entity.TemporalMonthly {
			confidence = clamp(confidence + 0.05)
			reasons = append(reasons, "monthly/recurring pattern")
		}
		signals.ScopeVote = entity.ScopeOperational
		signals.RawConfidence = confidence

	case keyword.scope == entity.ScopeProject && keyword.weight >= StrongSignalThreshold:
		confidence := keyword.weight
		reasons = append(reasons, fmt.Sprintf("strong project keyword: %q", keyword.phrase))
		if signals.ProjectName != "" {
			confidence = clamp(confidence + 0.05)
			reasons = append(reasons, fmt.Sprintf("project name: %q", signals.ProjectName))
		}
		if signals.Role == entity.RoleField {
			confidence = clamp(confidence + 0.05)
			reasons = append(reasons, fmt.Sprintf("field role: %q", signals.RoleName))
		}
		signals.ScopeVote = entity.ScopeProject
		signals.RawConfidence = confidence

	case keyword.scope == entity.ScopeAmbiguous:
		reasons = append(reasons, fmt.Sprintf("ambiguous keyword: %q", keyword.phrase))
		switch {
		case signals.Role == entity.RoleOffice:
			reasons = append(reasons, fmt.Sprintf("office role %q resolves operational", signals.RoleName))
			signals.ScopeVote = entity.ScopeOperational
			signals.RawConfidence = 0.75
		case signals.Role == entity.RoleField:
			reasons = append(reasons, fmt.Sprintf("field role %q resolves project", signals.RoleName))
			signals.ScopeVote = entity.ScopeProject
			signals.RawConfidence = 0.75
		case signals.ProjectName != "":
			reasons = append(reasons, fmt.Sprintf("project name %q resolves project", signals.ProjectName))
			signals.ScopeVote = entity.ScopeProject
			signals.RawConfidence = 0.80
		case signals.Temporal == entity.TemporalMonthly:
			reasons = append(reasons, "monthly pattern resolves operational")
			signals.ScopeVote = entity.ScopeOperational
			signals.RawConfidence = 0.70
		case signals.Temporal == entity.TemporalAdHoc:
			reasons = append(reasons, "ad-hoc timing leans project")
			signals.ScopeVote = entity.ScopeProject
			signals.RawConfidence = 0.65
		default:
			reasons = append(reasons, "no context clues found")
			signals.ScopeVote = entity.ScopeAmbiguous
			signals.RawConfidence = 0.40
		}

	// Weak (sub-strong) scoped keywords fall through here together with
	// no-keyword messages: context clues decide, at reduced confidence.
	default:
		switch {
		case signals.ProjectName != "":
			reasons = append(reasons, fmt.Sprintf("project name detected: %q", signals.ProjectName))
			signals.ScopeVote = entity.ScopeProject
			signals.RawConfidence = 0.70
		case signals.Role == entity.RoleOffice:
			reasons = append(reasons, fmt.Sprintf("office role: %q", signals.RoleName))
			signals.ScopeVote = entity.ScopeOperational
			signals.RawConfidence = 0.65
		case signals.Role == entity.RoleField:
			reasons = append(reasons, fmt.Sprintf("field role: %q", signals.RoleName))
			signals.ScopeVote = entity.ScopeProject
			signals.RawConfidence = 0.65
		case signals.Temporal == entity.TemporalMonthly:
			reasons = append(reasons, "monthly pattern")
			signals.ScopeVote = entity.ScopeOperational
			signals.RawConfidence = 0.60
		default:
			reasons = append(reasons, "no contextual signals detected")
			signals.ScopeVote = entity.ScopeAmbiguous
			signals.RawConfidence = 0.30
		}
	}

	signals.Reasoning = strings.Join(reasons, "; ")
}

func clamp(confidence float64) float64 {
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// cleanText lowercases and strips diacritics so vocabulary matching is not
// defeated by accented input from phone keyboards.
func (d *contextDetector) cleanText(text string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)

	cleaned, _, err := transform.String(t, text)
	if err != nil {
		cleaned = text
	}

	return strings.ToLower(strings.TrimSpace(cleaned))
}
