package normalize

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/subsidy-tracker/constants"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNormalize_Completeness(t *testing.T) {
	n := testNormalizer()

	for _, raw := range []map[string]any{
		{},
		{"title": "Aide aux vergers"},
		{"bogus_field": "x", "amount": nil},
	} {
		rec := n.Normalize(raw)
		if len(rec.Fields) != len(constants.CanonicalFields) {
			t.Fatalf("record has %d fields, want %d", len(rec.Fields), len(constants.CanonicalFields))
		}
		for _, f := range constants.CanonicalFields {
			if _, ok := rec.Fields[f]; !ok {
				t.Errorf("canonical field %q absent from record", f)
			}
		}
		if _, ok := rec.Fields["bogus_field"]; ok {
			t.Error("non-canonical field leaked into record")
		}
	}
}

func TestNormalize_DeadlineStrict(t *testing.T) {
	n := testNormalizer()

	rec := n.Normalize(map[string]any{"deadline": "2024-12-31"})
	want := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	if got := rec.Fields["deadline"]; got != want {
		t.Errorf("deadline = %v, want %v", got, want)
	}

	for _, bad := range []string{"31/12/2024", "2024-13-01", "December 31", "2024-12-31T00:00:00Z"} {
		rec := n.Normalize(map[string]any{"deadline": bad})
		if rec.Fields["deadline"] != nil {
			t.Errorf("deadline %q accepted, want nil", bad)
		}
		if !rec.Audit.IsMissing("deadline") {
			t.Errorf("deadline %q not marked missing", bad)
		}
	}
}

func TestNormalize_AmountDecimals(t *testing.T) {
	n := testNormalizer()

	rec := n.Normalize(map[string]any{"amount": "5000"})
	want := []decimal.Decimal{decimal.NewFromInt(5000)}
	got := rec.Amounts()
	if len(got) != 1 || !got[0].Equal(want[0]) {
		t.Errorf("amount = %v, want %v", got, want)
	}

	// a range arrives as a JSON array
	rec = n.Normalize(map[string]any{"amount": "[1000, 20000]"})
	got = rec.Amounts()
	if len(got) != 2 || !got[0].Equal(decimal.NewFromInt(1000)) || !got[1].Equal(decimal.NewFromInt(20000)) {
		t.Errorf("amount range = %v", got)
	}
}

func TestNormalize_CurrencyStringRejected(t *testing.T) {
	n := testNormalizer()
	rec := n.Normalize(map[string]any{"amount": "50,000 €"})

	if got := rec.Amounts(); len(got) != 0 {
		t.Errorf("amount = %v, want empty", got)
	}
	if !rec.Audit.IsMissing("amount") {
		t.Error("amount not marked missing")
	}
	if len(rec.Audit.ValidationNotes) == 0 {
		t.Error("no validation note for unconvertible amount")
	}
}

func TestNormalize_RateFields(t *testing.T) {
	n := testNormalizer()

	rec := n.Normalize(map[string]any{"co_financing_rate": "72.5", "previous_acceptance_rate": 40})
	d, ok := rec.Fields["co_financing_rate"].(decimal.Decimal)
	if !ok || !d.Equal(decimal.NewFromFloat(72.5)) {
		t.Errorf("co_financing_rate = %v", rec.Fields["co_financing_rate"])
	}
	if d, ok := rec.Fields["previous_acceptance_rate"].(decimal.Decimal); !ok || !d.Equal(decimal.NewFromInt(40)) {
		t.Errorf("previous_acceptance_rate = %v", rec.Fields["previous_acceptance_rate"])
	}

	rec = n.Normalize(map[string]any{"co_financing_rate": "approximately half"})
	if rec.Fields["co_financing_rate"] != nil {
		t.Errorf("bad rate stored as %v, want nil", rec.Fields["co_financing_rate"])
	}
	if !rec.Audit.IsMissing("co_financing_rate") {
		t.Error("bad rate not marked missing")
	}
}

func TestNormalize_ExtractionStatus(t *testing.T) {
	n := testNormalizer()

	rec := n.Normalize(map[string]any{"requirements_extraction_status": "extracted"})
	if rec.Fields["requirements_extraction_status"] != "extracted" {
		t.Errorf("status = %v", rec.Fields["requirements_extraction_status"])
	}

	rec = n.Normalize(map[string]any{"requirements_extraction_status": "done"})
	if rec.Fields["requirements_extraction_status"] != "pending" {
		t.Errorf("unknown status = %v, want pending", rec.Fields["requirements_extraction_status"])
	}
	if len(rec.Audit.ValidationNotes) == 0 {
		t.Error("no note for coerced status")
	}
}

func TestNormalize_QuestionnaireSteps(t *testing.T) {
	n := testNormalizer()

	raw := map[string]any{"questionnaire_steps": []any{
		map[string]any{"requirement": "SIRET", "question": "What is your SIRET number?"},
		map[string]any{"requirement": "surface"},
		"not an object",
	}}
	rec := n.Normalize(raw)

	steps, ok := rec.Fields["questionnaire_steps"].([]any)
	if !ok || len(steps) != 3 {
		t.Fatalf("questionnaire_steps = %v", rec.Fields["questionnaire_steps"])
	}
	// malformed steps produce notes but do not fail the record
	if len(rec.Audit.ValidationNotes) != 2 {
		t.Errorf("notes = %v, want 2", rec.Audit.ValidationNotes)
	}
}

func TestNormalize_ScalarStringification(t *testing.T) {
	n := testNormalizer()
	rec := n.Normalize(map[string]any{"title": 42, "agency": "  FranceAgriMer  "})
	if rec.Fields["title"] != "42" {
		t.Errorf("title = %v", rec.Fields["title"])
	}
	if rec.Fields["agency"] != "FranceAgriMer" {
		t.Errorf("agency = %v", rec.Fields["agency"])
	}
}

func TestNormalize_AttachmentSources(t *testing.T) {
	n := testNormalizer()
	rec := n.Normalize(map[string]any{"attachment_sources_used": []any{"guide.pdf", "annexe.pdf"}})
	want := []string{"guide.pdf", "annexe.pdf"}
	if diff := cmp.Diff(want, rec.Audit.AttachmentSourcesUsed); diff != "" {
		t.Errorf("attachment sources (-want +got):\n%s", diff)
	}
}

func TestNormalize_EndToEnd(t *testing.T) {
	n := testNormalizer()
	rec := n.Normalize(map[string]any{
		"amount": "50,000 €",
		"region": "PACA",
		"sector": "viticulture, aromatics",
	})

	if got := rec.Amounts(); len(got) != 0 {
		t.Errorf("amount = %v, want empty", got)
	}
	if diff := cmp.Diff([]string{"PACA"}, rec.Strings("region")); diff != "" {
		t.Errorf("region (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"viticulture", "aromatics"}, rec.Strings("sector")); diff != "" {
		t.Errorf("sector (-want +got):\n%s", diff)
	}
}
