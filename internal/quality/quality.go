// Package quality scores how completely a normalized subsidy record covers the
// canonical field set, and flags records that look oversimplified relative to
// their source text.
package quality

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/subsidy-tracker/constants"
	"github.com/joseph-ayodele/subsidy-tracker/internal/normalize"
	"github.com/joseph-ayodele/subsidy-tracker/internal/schema"
)

// reviewThreshold is the coverage score below which a record always goes to a
// human, regardless of which fields are present.
const reviewThreshold = 75.0

// Score is the quality assessment of one normalized record. Derived purely
// from the record (and optional source text); recomputable at any time.
type Score struct {
	CoverageScore       float64
	CriticalMissing     []string
	Warnings            []string
	CompletenessDetails map[string]bool
}

// Level buckets the coverage score for reporting.
func (s Score) Level() constants.QualityLevel {
	return constants.LevelForScore(s.CoverageScore)
}

// RequiresHumanReview reports whether the record should be routed to a person.
func (s Score) RequiresHumanReview() bool {
	return s.CoverageScore < reviewThreshold || len(s.CriticalMissing) > 0
}

// fieldCategories partitions the canonical fields into four weighted groups,
// each worth 25 points of coverage.
var fieldCategories = map[string][]string{
	"identification": {
		constants.FieldURL, constants.FieldTitle, constants.FieldDescription,
		constants.FieldProgram, constants.FieldAgency,
	},
	"financial": {
		constants.FieldAmount, constants.FieldCoFinancingRate, constants.FieldFundingType,
		constants.FieldFundingSource, constants.FieldPaymentTerms,
	},
	"eligibility": {
		constants.FieldEligibility, constants.FieldRegion, constants.FieldSector,
		constants.FieldPriorityGroups, constants.FieldLegalEntityType,
	},
	"process": {
		constants.FieldDocuments, constants.FieldDeadline, constants.FieldApplicationMethod,
		constants.FieldApplicationRequirements, constants.FieldProjectDuration,
	},
}

const pointsPerCategory = 25.0

// highValueFields earn up to 20 bonus points when covered.
var highValueFields = []string{
	constants.FieldEvaluationCriteria,
	constants.FieldDeadline,
	constants.FieldApplicationMethod,
	constants.FieldComplianceRequirements,
	constants.FieldTechnicalSupport,
	constants.FieldPaymentTerms,
}

const bonusPoints = 20.0

// criticalFields must be complete for a record to skip human review.
var criticalFields = []string{
	constants.FieldTitle,
	constants.FieldAmount,
	constants.FieldEligibility,
	constants.FieldDeadline,
}

// complexityIndicators are the domain signals (percentages, amounts, caps,
// tiers) whose presence in the source text should survive into the extracted
// fields.
var complexityIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\d+\s?%`),
	regexp.MustCompile(`€`),
	regexp.MustCompile(`(?i)plafond|ceiling|maximum|minimum`),
	regexp.MustCompile(`(?i)per hectare|/ha\b`),
	regexp.MustCompile(`(?i)tranche|tier`),
	regexp.MustCompile(`(?i)jusqu'à|up to`),
}

// complexityFields maps checked fields to the record fields whose text should
// carry the source's complexity.
var complexityFields = map[string][]string{
	"funding calculation": {constants.FieldAmount, constants.FieldCoFinancingRate},
	"eligibility":         {constants.FieldEligibility},
	"documents":           {constants.FieldDocuments},
	"timelines":           {constants.FieldDeadline, constants.FieldProjectDuration},
}

// Validator scores normalized records. Stateless apart from the injected
// logger; safe for concurrent use.
type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Validate computes the quality score for rec. sourceText is the raw page/
// attachment text when available; pass "" to skip the complexity checks.
// Never returns an error: check failures become warnings.
func (v *Validator) Validate(rec *normalize.Record, sourceText string) Score {
	score := Score{CompletenessDetails: make(map[string]bool)}

	var coverage float64
	for _, category := range []string{"identification", "financial", "eligibility", "process"} {
		fields := fieldCategories[category]
		complete := 0
		for _, f := range fields {
			ok := isComplete(rec.Fields[f])
			score.CompletenessDetails[f] = ok
			if ok {
				complete++
			}
		}
		coverage += pointsPerCategory * float64(complete) / float64(len(fields))
	}

	bonusComplete := 0
	for _, f := range highValueFields {
		if isComplete(rec.Fields[f]) {
			bonusComplete++
		}
	}
	coverage += bonusPoints * float64(bonusComplete) / float64(len(highValueFields))

	if coverage > 100 {
		coverage = 100
	}
	score.CoverageScore = coverage

	for _, f := range criticalFields {
		if !isComplete(rec.Fields[f]) {
			score.CriticalMissing = append(score.CriticalMissing, f)
		}
	}

	score.Warnings = append(score.Warnings, v.structuralWarnings(rec)...)
	if sourceText != "" {
		score.Warnings = append(score.Warnings, v.complexityWarnings(rec, sourceText)...)
	}

	v.logger.Info("quality.validate",
		"score", score.CoverageScore,
		"level", string(score.Level()),
		"critical_missing", len(score.CriticalMissing),
		"warnings", len(score.Warnings),
	)
	return score
}

func (v *Validator) structuralWarnings(rec *normalize.Record) []string {
	var warnings []string

	for _, f := range schema.ArrayFields() {
		switch rec.Fields[f].(type) {
		case []any, []decimal.Decimal:
		default:
			warnings = append(warnings, fmt.Sprintf("%s: expected an array, got %T", f, rec.Fields[f]))
		}
	}

	amounts := rec.Amounts()
	if len(amounts) == 0 {
		warnings = append(warnings, "amount: no numeric values")
	}
	if len(amounts) == 2 && amounts[0].GreaterThan(amounts[1]) {
		warnings = append(warnings, fmt.Sprintf("amount: range inverted (%s > %s)", amounts[0], amounts[1]))
	}

	if desc, ok := rec.Fields[constants.FieldDescription].(string); ok && desc != "" && len(desc) < 100 {
		warnings = append(warnings, fmt.Sprintf("description: only %d characters, likely oversimplified", len(desc)))
	}

	if rate, ok := rec.Fields[constants.FieldCoFinancingRate].(decimal.Decimal); ok {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			warnings = append(warnings, fmt.Sprintf("co_financing_rate: %s outside [0,100]", rate))
		}
	}

	return warnings
}

// complexityWarnings flags fields whose extracted text carries far less
// domain complexity than the source did.
func (v *Validator) complexityWarnings(rec *normalize.Record, sourceText string) []string {
	srcCount := countIndicators(sourceText)
	if srcCount <= 2 {
		// too little signal in the source to judge preservation
		return nil
	}

	var warnings []string
	for label, fields := range complexityFields {
		var sb strings.Builder
		for _, f := range fields {
			sb.WriteString(fieldText(rec, f))
			sb.WriteString(" ")
		}
		fieldCount := countIndicators(sb.String())
		if srcCount > 2*fieldCount {
			warnings = append(warnings,
				fmt.Sprintf("%s: source has %d complexity indicators, extracted fields only %d", label, srcCount, fieldCount))
		}
	}
	return warnings
}

func countIndicators(text string) int {
	total := 0
	for _, re := range complexityIndicators {
		total += len(re.FindAllString(text, -1))
	}
	return total
}

func fieldText(rec *normalize.Record, field string) string {
	switch t := rec.Fields[field].(type) {
	case nil:
		return ""
	case string:
		return t
	case []decimal.Decimal:
		parts := make([]string, len(t))
		for i, d := range t {
			parts[i] = d.String()
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, len(t))
		for i, el := range t {
			parts[i] = fmt.Sprintf("%v", el)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// isComplete reports whether a normalized value counts toward coverage:
// present, non-empty, and not a known placeholder.
func isComplete(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != "" && !isPlaceholder(t)
	case []any:
		return len(t) > 0
	case []decimal.Decimal:
		return len(t) > 0
	default:
		return true
	}
}

func isPlaceholder(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, p := range constants.PlaceholderValues {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
