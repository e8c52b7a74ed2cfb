package vendorcheck

import (
	"testing"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

func vendors(names ...string) []entity.Vendor {
	out := make([]entity.Vendor, 0, len(names))
	for _, n := range names {
		out = append(out, entity.Vendor{Name: n})
	}
	return out
}

func TestValidate_ExactMatch(t *testing.T) {
	result := Validate("Acme Supplies Company", vendors("Acme Supplies Company", "Other Corp"))
	if !result.Valid {
		t.Fatalf("expected valid, got reason %q", result.Reason)
	}
	if result.Confidence != 1.0 {
		t.Errorf("got confidence %v, want 1.0", result.Confidence)
	}
	if result.MatchedVendor == nil || result.MatchedVendor.Name != "Acme Supplies Company" {
		t.Errorf("matched vendor = %+v", result.MatchedVendor)
	}
}

func TestValidate_ExactMatchCaseInsensitive(t *testing.T) {
	result := Validate("acme supplies company", vendors("Acme Supplies Company"))
	if !result.Valid || result.Confidence != 1.0 {
		t.Errorf("case-insensitive exact match failed: %+v", result)
	}
}

func TestValidate_AlternateName(t *testing.T) {
	vs := []entity.Vendor{{Name: "Acme Supplies Company", AlternateNames: []string{"Acme Co", "ASC"}}}
	result := Validate("Acme Co", vs)
	if !result.Valid || result.Confidence != 1.0 {
		t.Errorf("alternate-name match failed: %+v", result)
	}
}

func TestValidate_SubstringSuggestions(t *testing.T) {
	result := Validate("Acme Supplies Co", vendors("Acme Supplies Company", "Other Corp"))
	if result.Valid {
		t.Fatal("near match must not validate")
	}
	if result.Confidence != 0.7 {
		t.Errorf("got confidence %v, want 0.7", result.Confidence)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0] != "Acme Supplies Company" {
		t.Errorf("suggestions = %v", result.Suggestions)
	}
	if result.Reason == "" {
		t.Error("failed validation must carry a reason")
	}
}

func TestValidate_ExactBeatsSubstring(t *testing.T) {
	// "Acme" is a substring of both, but one entry is an exact match.
	result := Validate("Acme", vendors("Acme", "Acme Supplies Company"))
	if !result.Valid || result.Confidence != 1.0 {
		t.Errorf("exact match should win over substring candidates: %+v", result)
	}
}

func TestValidate_NoMatch(t *testing.T) {
	result := Validate("Globex", vendors("Acme Supplies Company", "Other Corp"))
	if result.Valid {
		t.Fatal("unknown vendor must not validate")
	}
	if result.Confidence != 0.0 {
		t.Errorf("got confidence %v, want 0.0", result.Confidence)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("unexpected suggestions: %v", result.Suggestions)
	}
}

func TestValidate_MissingName(t *testing.T) {
	result := Validate("", vendors("Acme Supplies Company"))
	if result.Valid {
		t.Fatal("empty vendor name must not validate")
	}
	if result.Reason != "missing vendor information in extracted data" {
		t.Errorf("got reason %q", result.Reason)
	}
}

func TestValidate_SuggestionCap(t *testing.T) {
	result := Validate("Acme", vendors("Acme One", "Acme Two", "Acme Three", "Acme Four"))
	if len(result.Suggestions) > 3 {
		t.Errorf("suggestions should be capped at 3, got %d", len(result.Suggestions))
	}
}
