package detector

import (
	"regexp"
	"strconv"
	"strings"
)

// Indonesian chat amounts come in four shapes, tried in order of how
// explicit they are. The tier order resolves conflicts when a message
// carries several numbers (dates, reference codes, phone numbers).
var (
	currencyAmountRegex  = regexp.MustCompile(`(?i)(?:rp|idr)[\s.]*([\d][\d.,]*)\s*(rb|ribu|jt|juta|k)?`)
	suffixAmountRegex    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(rb|ribu|jt|juta|k)\b`)
	separatedAmountRegex = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+`)
	plainAmountRegex     = regexp.MustCompile(`\d{4,}`)

	feeContextRegex = regexp.MustCompile(`(?i)(?:biaya\s+admin|biaya\s+adm|biaya\s+transfer|admin\s+fee|fee\s+transfer|adm)\b`)
)

const minFeeAmount = 1000

// ParseAmount extracts the most plausible transaction amount from free text.
// Returns 0 and false when nothing recognizable is found.
func ParseAmount(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}

	if match := currencyAmountRegex.FindStringSubmatch(text); match != nil {
		if amount := normalizeAmount(match[1], match[2]); amount > 0 {
			return amount, true
		}
	}

	if match := suffixAmountRegex.FindStringSubmatch(text); match != nil {
		if amount := normalizeAmount(match[1], match[2]); amount > 0 {
			return amount, true
		}
	}

	if match := separatedAmountRegex.FindString(text); match != "" {
		if amount := normalizeAmount(match, ""); amount > 0 {
			return amount, true
		}
	}

	for _, match := range plainAmountRegex.FindAllString(text, -1) {
		if isNumericNoise(match) {
			continue
		}
		if amount := normalizeAmount(match, ""); amount > 0 {
			return amount, true
		}
	}

	return 0, false
}

// ParseFee extracts a secondary admin/transfer fee. A fee only counts when
// it sits next to a fee keyword, clears the sanity floor, and is strictly
// smaller than the main amount. A candidate equal to the main amount is the
// same number seen twice, not a fee.
func ParseFee(text string, mainAmount int64) (int64, bool) {
	if mainAmount <= 0 {
		return 0, false
	}

	loc := feeContextRegex.FindStringIndex(text)
	if loc == nil {
		return 0, false
	}

	window := text[loc[1]:]
	if len(window) > 40 {
		window = window[:40]
	}

	fee, found := ParseAmount(window)
	if !found {
		return 0, false
	}

	if fee < minFeeAmount || fee >= mainAmount {
		return 0, false
	}

	return fee, true
}

// HasAmountSignal reports whether the text carries any recognizable amount
// shape. Used as a cheap pre-filter before full detection.
func HasAmountSignal(text string) bool {
	if text == "" {
		return false
	}
	return currencyAmountRegex.MatchString(text) ||
		suffixAmountRegex.MatchString(text) ||
		separatedAmountRegex.MatchString(text) ||
		plainAmountRegex.MatchString(text)
}

// normalizeAmount converts a captured number plus optional multiplier suffix
// into rupiah. With a suffix the comma is a decimal mark ("1,5jt"); without
// one every separator is a thousands mark ("1.500.000").
func normalizeAmount(number, suffix string) int64 {
	suffix = strings.ToLower(strings.TrimSpace(suffix))

	if suffix != "" {
		value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
		if err != nil {
			return 0
		}
		switch suffix {
		case "rb", "ribu", "k":
			return int64(value * 1_000)
		case "jt", "juta":
			return int64(value * 1_000_000)
		}
		return 0
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return 0
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// isNumericNoise flags bare digit runs that are almost certainly not money:
// phone numbers (too long) and calendar years.
func isNumericNoise(digits string) bool {
	if len(digits) > 9 {
		return true
	}
	if len(digits) == 4 {
		year, _ := strconv.Atoi(digits)
		if year >= 1900 && year <= 2100 {
			return true
		}
	}
	return false
}
