// Package normalize assembles fully-typed subsidy records from raw extractor
// output. Every canonical field is present in the result; conversion failures
// degrade to null plus an audit note instead of propagating.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/subsidy-tracker/constants"
	"github.com/joseph-ayodele/subsidy-tracker/internal/coerce"
	"github.com/joseph-ayodele/subsidy-tracker/internal/schema"
)

// deadline values must be exactly this layout; anything else is rejected.
const dateLayout = "2006-01-02"

// Audit records what happened to a record during normalization.
type Audit struct {
	MissingFields         []string         `json:"missing_fields"`
	ValidationNotes       []string         `json:"validation_notes"`
	AttachmentSourcesUsed []string         `json:"attachment_sources_used"`
	Coercions             []map[string]any `json:"coercions"`
}

// IsMissing reports whether the named field was marked missing.
func (a *Audit) IsMissing(field string) bool {
	for _, f := range a.MissingFields {
		if f == field {
			return true
		}
	}
	return false
}

// Record is a normalized subsidy: every canonical field, typed, plus the audit
// trail. Values are one of nil, string, time.Time, decimal.Decimal,
// []decimal.Decimal, or []any. Never mutated after Normalize returns.
type Record struct {
	Fields map[string]any
	Audit  Audit
}

// Get returns the typed value for a canonical field.
func (r *Record) Get(name string) any {
	return r.Fields[name]
}

// Strings returns an array field's elements in string form.
func (r *Record) Strings(name string) []string {
	elems, ok := r.Fields[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(elems))
	for i, el := range elems {
		out[i] = fmt.Sprintf("%v", el)
	}
	return out
}

// Amounts returns the typed amount array, empty when conversion failed.
func (r *Record) Amounts() []decimal.Decimal {
	ds, _ := r.Fields[constants.FieldAmount].([]decimal.Decimal)
	return ds
}

// Normalizer applies per-field typing rules across a raw record.
// Stateless apart from the injected logger; safe for concurrent use.
type Normalizer struct {
	logger *slog.Logger
	engine *coerce.Engine
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger, engine: coerce.NewEngine(logger)}
}

// Normalize builds a Record from raw extractor output. It never returns an
// error: every canonical field ends up either typed or null with an audit note.
func (n *Normalizer) Normalize(raw map[string]any) *Record {
	rec := &Record{Fields: make(map[string]any, len(constants.CanonicalFields))}

	for _, field := range constants.CanonicalFields {
		if schema.IsArrayField(field) {
			n.normalizeArray(rec, field, raw[field])
			continue
		}
		n.normalizeScalar(rec, field, raw[field])
	}

	// non-canonical metadata: which attachments contributed extracted text
	if v, ok := raw["attachment_sources_used"]; ok {
		res := n.engine.Coerce(v, "attachment_sources_used")
		for _, el := range res.Value {
			rec.Audit.AttachmentSourcesUsed = append(rec.Audit.AttachmentSourcesUsed, fmt.Sprintf("%v", el))
		}
	}

	n.logger.Info("normalize.done",
		"missing", len(rec.Audit.MissingFields),
		"notes", len(rec.Audit.ValidationNotes),
	)
	return rec
}

func (n *Normalizer) normalizeArray(rec *Record, field string, raw any) {
	res := n.engine.Coerce(raw, field)
	rec.Audit.Coercions = append(rec.Audit.Coercions, res.AuditEntry())

	elems := res.Value
	if !res.Success {
		// engine already logged; treat like an empty result and keep going
		elems = []any{}
	}

	switch field {
	case constants.FieldAmount:
		amounts := make([]decimal.Decimal, 0, len(elems))
		for _, el := range elems {
			d, err := toDecimal(el)
			if err != nil {
				rec.Audit.ValidationNotes = append(rec.Audit.ValidationNotes,
					fmt.Sprintf("amount: cannot convert %q to decimal", fmt.Sprintf("%v", el)))
				rec.Fields[field] = []decimal.Decimal{}
				n.markMissing(rec, field)
				return
			}
			amounts = append(amounts, d)
		}
		rec.Fields[field] = amounts

	case constants.FieldQuestionnaireSteps:
		for i, el := range elems {
			step, ok := el.(map[string]any)
			if !ok {
				rec.Audit.ValidationNotes = append(rec.Audit.ValidationNotes,
					fmt.Sprintf("questionnaire_steps[%d]: not an object", i))
				continue
			}
			if _, hasReq := step["requirement"]; !hasReq {
				rec.Audit.ValidationNotes = append(rec.Audit.ValidationNotes,
					fmt.Sprintf("questionnaire_steps[%d]: missing requirement key", i))
			}
			if _, hasQ := step["question"]; !hasQ {
				rec.Audit.ValidationNotes = append(rec.Audit.ValidationNotes,
					fmt.Sprintf("questionnaire_steps[%d]: missing question key", i))
			}
		}
		rec.Fields[field] = elems

	default:
		rec.Fields[field] = elems
	}
}

func (n *Normalizer) normalizeScalar(rec *Record, field string, raw any) {
	if raw == nil || isBlankString(raw) {
		rec.Fields[field] = nil
		n.markMissing(rec, field)
		return
	}

	switch field {
	case constants.FieldDeadline:
		s := strings.TrimSpace(fmt.Sprintf("%v", raw))
		t, err := time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			rec.Audit.ValidationNotes = append(rec.Audit.ValidationNotes,
				fmt.Sprintf("deadline: %q is not YYYY-MM-DD", s))
			rec.Fields[field] = nil
			n.markMissing(rec, field)
			return
		}
		rec.Fields[field] = t

	case constants.FieldCoFinancingRate, constants.FieldPreviousAcceptanceRate, constants.FieldMatchingAlgorithmScore:
		d, err := toDecimal(raw)
		if err != nil {
			rec.Fields[field] = nil
			n.markMissing(rec, field)
			return
		}
		rec.Fields[field] = d

	case constants.FieldExtractionStatus:
		status, ok := constants.CanonicalizeStatus(fmt.Sprintf("%v", raw))
		if !ok {
			rec.Audit.ValidationNotes = append(rec.Audit.ValidationNotes,
				fmt.Sprintf("requirements_extraction_status: %q coerced to pending", fmt.Sprintf("%v", raw)))
		}
		rec.Fields[field] = string(status)

	default:
		rec.Fields[field] = strings.TrimSpace(fmt.Sprintf("%v", raw))
	}
}

func (n *Normalizer) markMissing(rec *Record, field string) {
	if !rec.Audit.IsMissing(field) {
		rec.Audit.MissingFields = append(rec.Audit.MissingFields, field)
	}
}

func isBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// toDecimal converts a coerced element into a fixed-point decimal.
func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	default:
		return decimal.NewFromString(strings.TrimSpace(fmt.Sprintf("%v", v)))
	}
}
