package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Quality is an estimate of how usable extracted text is. It informs
// downstream handling and diagnostics; it never gates extraction.
type Quality struct {
	Valid      bool
	Confidence float64 // [0,1]
	Issues     []string
}

const minTextLength = 20

var (
	reDigits   = regexp.MustCompile(`\d`)
	reCurrency = regexp.MustCompile(`(?i)\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€¥]`)
	reKeywords = regexp.MustCompile(`(?i)\b(po|purchase\s+order|order|invoice|supplier|vendor|total|amount|quantity)\b`)
)

// CheckQuality scores extracted text on length, character makeup, and the
// presence of PO-domain signals.
func CheckQuality(text string) Quality {
	trimmed := strings.TrimSpace(text)
	q := Quality{Confidence: 0.2}

	if len(trimmed) < minTextLength {
		q.Issues = append(q.Issues, fmt.Sprintf("extracted text too short (%d chars)", len(trimmed)))
		q.Confidence = 0
		if len(trimmed) == 0 {
			q.Issues = []string{"no text extracted"}
		}
		return q
	}

	var letters, total int
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters++
		}
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(letters) / float64(total)
	}
	if ratio < 0.5 {
		q.Issues = append(q.Issues, "low alphanumeric ratio; text may be garbled OCR output")
	} else {
		q.Confidence += 0.3
	}

	if reDigits.MatchString(trimmed) {
		q.Confidence += 0.15
	} else {
		q.Issues = append(q.Issues, "no digits found; purchase orders usually contain numbers")
	}
	if reCurrency.MatchString(trimmed) {
		q.Confidence += 0.15
	}
	if reKeywords.MatchString(trimmed) {
		q.Confidence += 0.2
	} else {
		q.Issues = append(q.Issues, "no purchase-order keywords found")
	}

	if q.Confidence > 1.0 {
		q.Confidence = 1.0
	}
	q.Valid = q.Confidence >= 0.5
	return q
}
