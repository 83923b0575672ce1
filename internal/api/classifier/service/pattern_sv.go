package classifierService

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/context"

	"LedgerBot/internal/api/classifier"
	"LedgerBot/internal/entity"
	contextPkg "LedgerBot/pkg/context"
	"LedgerBot/pkg/log"
)

const (
	maxExactBoost  = 0.20
	exactBoostStep = 0.05
	maxFuzzyBoost  = 0.15
	fuzzyBoostStep = 0.04
	fuzzyOverlap   = 0.70
)

var (
	amountTemplateRegex   = regexp.MustCompile(`(?i)\d+[,.]?\d*\s*(rb|ribu|jt|juta|k)?`)
	currencyTemplateRegex = regexp.MustCompile(`(?i)(?:rp|idr)[.\s]*[\d][\d.,]*`)

	monthNames = []string{
		"januari", "februari", "maret", "april", "mei", "juni",
		"juli", "agustus", "september", "oktober", "november", "desember",
	}

	templateKeepWords = map[string]bool{
		"gaji": true, "gajian": true, "bon": true, "bayar": true, "beli": true,
		"fee": true, "upah": true, "tukang": true, "admin": true, "staff": true,
		"listrik": true, "pln": true, "air": true, "pdam": true,
	}

	templateCommonWords = map[string]bool{
		"untuk": true, "buat": true, "dari": true, "dengan": true, "yang": true,
		"bulan": true, "tanggal": true,
	}
)

// normalizeTemplate collapses semantically identical messages to one key:
// amounts become {amount}, month names become {month}, and long unknown
// words (likely project names) become {project}, with consecutive {project}
// tokens deduplicated.
func normalizeTemplate(text string) string {
	lower := strings.ToLower(text)
	// Currency first so "rp 150.000" collapses whole, digits included.
	lower = currencyTemplateRegex.ReplaceAllString(lower, "{amount}")
	lower = amountTemplateRegex.ReplaceAllString(lower, "{amount}")

	for _, month := range monthNames {
		lower = strings.ReplaceAll(lower, month, "{month}")
	}

	var normalized []string
	for _, word := range strings.Fields(lower) {
		switch {
		case templateKeepWords[word], strings.HasPrefix(word, "{"):
			normalized = append(normalized, word)
		case len(word) > 3 && !templateCommonWords[word]:
			normalized = append(normalized, "{project}")
		default:
			normalized = append(normalized, word)
		}
	}

	var deduped []string
	prev := ""
	for _, word := range normalized {
		if word == "{project}" && prev == "{project}" {
			continue
		}
		deduped = append(deduped, word)
		prev = word
	}

	return strings.TrimSpace(strings.Join(deduped, " "))
}

type patternMatch struct {
	scope entity.Scope
	boost float64
	fuzzy bool
}

// lookupPattern checks the learned store for an exact template match, then
// falls back to a word-overlap fuzzy match. Any storage failure degrades to
// "no boost": learning is an optimization, never a hard dependency.
func (s *classifierService) lookupPattern(ctx context.Context, text string) (patternMatch, bool) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return patternMatch{}, false
	}

	template := normalizeTemplate(text)

	pattern, err := repo.Pattern.GetPattern(ctx, template)
	if err == nil {
		return patternMatch{
			scope: pattern.Scope,
			boost: boundedBoost(pattern.ConfirmationCount, exactBoostStep, maxExactBoost),
		}, true
	}
	if !errors.Is(err, classifier.ErrPatternNotFound) {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Pattern lookup failed, continuing without boost")
		return patternMatch{}, false
	}

	patterns, err := repo.Pattern.ListPatterns(ctx)
	if err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Pattern enumeration failed, continuing without boost")
		return patternMatch{}, false
	}

	templateWords := wordSet(template)
	for _, candidate := range patterns {
		candidateWords := wordSet(candidate.Template)
		if len(candidateWords) == 0 {
			continue
		}
		if float64(overlap(candidateWords, templateWords)) >= float64(len(candidateWords))*fuzzyOverlap {
			return patternMatch{
				scope: candidate.Scope,
				boost: boundedBoost(candidate.ConfirmationCount, fuzzyBoostStep, maxFuzzyBoost),
				fuzzy: true,
			}, true
		}
	}

	return patternMatch{}, false
}

// recordConfirmation persists a confirmed classification so future lookups
// of the same template earn a confidence boost. Fail-open: a persistence
// error is logged and swallowed.
func (s *classifierService) recordConfirmation(ctx context.Context, originalText string, scope entity.Scope) {
	requestID := contextPkg.GetRequestID(ctx)

	if !entity.IsResolvedScope(scope) {
		return
	}

	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return
	}

	template := normalizeTemplate(originalText)
	if template == "" {
		return
	}

	pattern, err := repo.Pattern.GetPattern(ctx, template)
	if err != nil {
		if !errors.Is(err, classifier.ErrPatternNotFound) {
			s.log.WithFields(log.Fields{
				"request_id": requestID,
				"error":      err.Error(),
				"template":   template,
			}).Warn("Pattern read failed, confirmation not recorded")
			return
		}
		pattern = entity.LearnedPattern{Template: template, Scope: scope}
	}

	pattern.Scope = scope
	pattern.ConfirmationCount++
	pattern.LastUpdated = time.Now()
	pattern.AddExample(originalText)

	if err := repo.Pattern.SavePattern(ctx, pattern); err != nil {
		s.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"template":   template,
		}).Warn("Pattern write failed, confirmation not recorded")
		return
	}

	s.log.WithFields(log.Fields{
		"request_id": requestID,
		"template":   template,
		"scope":      scope,
		"count":      pattern.ConfirmationCount,
	}).Info("Learned pattern from confirmation")
}

func boundedBoost(count int, step, max float64) float64 {
	boost := float64(count) * step
	if boost > max {
		return max
	}
	return boost
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		set[word] = true
	}
	return set
}

func overlap(a, b map[string]bool) int {
	n := 0
	for word := range a {
		if b[word] {
			n++
		}
	}
	return n
}

func (s *classifierService) ListPatterns(ctx context.Context) ([]entity.LearnedPattern, error) {
	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return nil, err
	}
	return repo.Pattern.ListPatterns(ctx)
}

func (s *classifierService) PurgePatterns(ctx context.Context) error {
	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return err
	}
	return repo.Pattern.PurgePatterns(ctx)
}

func (s *classifierService) GetStats(ctx context.Context) (classifier.StatsResponse, error) {
	repo, err := s.classifierRepository.NewClient()
	if err != nil {
		return classifier.StatsResponse{}, err
	}

	sessions, err := repo.Session.CountSessions(ctx)
	if err != nil {
		return classifier.StatsResponse{}, err
	}

	patterns, err := repo.Pattern.CountPatterns(ctx)
	if err != nil {
		return classifier.StatsResponse{}, err
	}

	return classifier.StatsResponse{
		PendingSessions: sessions,
		LearnedPatterns: patterns,
	}, nil
}
