package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/subsidy-tracker/constants"
)

func TestIsArrayField(t *testing.T) {
	arrays := []string{"amount", "documents", "region", "sector", "priority_groups", "application_requirements", "questionnaire_steps"}
	for _, f := range arrays {
		if !IsArrayField(f) {
			t.Errorf("IsArrayField(%q) = false", f)
		}
	}
	for _, f := range []string{"title", "deadline", "co_financing_rate", "no_such_field", ""} {
		if IsArrayField(f) {
			t.Errorf("IsArrayField(%q) = true", f)
		}
	}
}

func TestFieldKind(t *testing.T) {
	tests := []struct {
		field string
		want  Kind
	}{
		{"amount", KindNumeric},
		{"co_financing_rate", KindNumeric},
		{"previous_acceptance_rate", KindNumeric},
		{"matching_algorithm_score", KindNumeric},
		{"deadline", KindDate},
		{"questionnaire_steps", KindObject},
		{"title", KindString},
		{"no_such_field", KindString},
	}
	for _, tt := range tests {
		if got := FieldKind(tt.field); got != tt.want {
			t.Errorf("FieldKind(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestArrayFields_CanonicalOrder(t *testing.T) {
	want := []string{"documents", "amount", "region", "sector", "priority_groups", "application_requirements", "questionnaire_steps"}
	if diff := cmp.Diff(want, ArrayFields()); diff != "" {
		t.Errorf("ArrayFields (-want +got):\n%s", diff)
	}
}

func TestEveryCanonicalFieldRegistered(t *testing.T) {
	for _, f := range constants.CanonicalFields {
		if _, ok := fieldTable[f]; !ok {
			t.Errorf("canonical field %q missing from field table", f)
		}
	}
	if len(fieldTable) != len(constants.CanonicalFields) {
		t.Errorf("field table has %d entries, canonical set has %d", len(fieldTable), len(constants.CanonicalFields))
	}
}
