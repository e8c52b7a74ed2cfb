// Package vendorcheck matches extracted vendor names against tenant master
// data. Exact and substring matching is a deliberately simple, explainable
// first line: this is the gate before anything reaches the ERP, so a wrong
// vendor must never be accepted silently.
package vendorcheck

import (
	"fmt"
	"strings"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

const maxSuggestions = 3

// Validate matches name against the vendor list. Exact match on canonical or
// alternate name wins with confidence 1.0; otherwise bidirectional substring
// matches become suggestions with confidence 0.7; otherwise 0.0.
func Validate(name string, vendors []entity.Vendor) entity.ValidationResult {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return entity.ValidationResult{
			Valid:      false,
			Confidence: 0,
			Reason:     "missing vendor information in extracted data",
		}
	}

	for i := range vendors {
		v := &vendors[i]
		if strings.ToLower(v.Name) == needle {
			return entity.ValidationResult{Valid: true, MatchedVendor: v, Confidence: 1.0}
		}
		for _, alt := range v.AlternateNames {
			if strings.ToLower(alt) == needle {
				return entity.ValidationResult{Valid: true, MatchedVendor: v, Confidence: 1.0}
			}
		}
	}

	var suggestions []string
	for i := range vendors {
		candidate := strings.ToLower(vendors[i].Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			suggestions = append(suggestions, vendors[i].Name)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}

	res := entity.ValidationResult{Valid: false, Suggestions: suggestions}
	if len(suggestions) > 0 {
		res.Confidence = 0.7
		res.Reason = fmt.Sprintf("Vendor %q not found in master data. Suggestions: %s",
			name, strings.Join(suggestions, ", "))
	} else {
		res.Confidence = 0.0
		res.Reason = fmt.Sprintf("Vendor %q not found in master data. No similar vendors found.", name)
	}
	return res
}
