package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/subsidy-tracker/constants"
	"github.com/joseph-ayodele/subsidy-tracker/internal/normalize"
	"github.com/joseph-ayodele/subsidy-tracker/internal/quality"
)

// Subsidy represents a normalized subsidy listing for data transfer between
// layers. URL is the natural key the persistence layer upserts on.
type Subsidy struct {
	ID                      uuid.UUID          `json:"id"`
	URL                     string             `json:"url"`
	Title                   string             `json:"title"`
	Description             string             `json:"description"`
	Eligibility             string             `json:"eligibility"`
	Documents               []string           `json:"documents"`
	Deadline                *time.Time         `json:"deadline,omitempty"`
	Amounts                 []decimal.Decimal  `json:"amounts"`
	Program                 string             `json:"program"`
	Agency                  string             `json:"agency"`
	Region                  []string           `json:"region"`
	Sector                  []string           `json:"sector"`
	FundingType             string             `json:"funding_type"`
	CoFinancingRate         *decimal.Decimal   `json:"co_financing_rate,omitempty"`
	ProjectDuration         string             `json:"project_duration"`
	PaymentTerms            string             `json:"payment_terms"`
	ApplicationMethod       string             `json:"application_method"`
	EvaluationCriteria      string             `json:"evaluation_criteria"`
	PreviousAcceptanceRate  *decimal.Decimal   `json:"previous_acceptance_rate,omitempty"`
	PriorityGroups          []string           `json:"priority_groups"`
	LegalEntityType         string             `json:"legal_entity_type"`
	FundingSource           string             `json:"funding_source"`
	ReportingRequirements   string             `json:"reporting_requirements"`
	ComplianceRequirements  string             `json:"compliance_requirements"`
	Language                string             `json:"language"`
	TechnicalSupport        string             `json:"technical_support"`
	MatchingAlgorithmScore  *decimal.Decimal   `json:"matching_algorithm_score,omitempty"`
	ApplicationRequirements []string           `json:"application_requirements"`
	QuestionnaireSteps      []any              `json:"questionnaire_steps"`
	ExtractionStatus        string             `json:"requirements_extraction_status"`
	CoverageScore           float64            `json:"coverage_score"`
	RequiresReview          bool               `json:"requires_review"`
	Audit                   normalize.Audit    `json:"audit"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// RawLog is one raw extraction payload as handed over by the scraping layer,
// kept for replay and debugging.
type RawLog struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Payload   string    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FromRecord builds a Subsidy from a normalized record and its quality score.
func FromRecord(rec *normalize.Record, score quality.Score) *Subsidy {
	s := &Subsidy{
		URL:                     str(rec, constants.FieldURL),
		Title:                   str(rec, constants.FieldTitle),
		Description:             str(rec, constants.FieldDescription),
		Eligibility:             str(rec, constants.FieldEligibility),
		Documents:               rec.Strings(constants.FieldDocuments),
		Amounts:                 rec.Amounts(),
		Program:                 str(rec, constants.FieldProgram),
		Agency:                  str(rec, constants.FieldAgency),
		Region:                  rec.Strings(constants.FieldRegion),
		Sector:                  rec.Strings(constants.FieldSector),
		FundingType:             str(rec, constants.FieldFundingType),
		CoFinancingRate:         dec(rec, constants.FieldCoFinancingRate),
		ProjectDuration:         str(rec, constants.FieldProjectDuration),
		PaymentTerms:            str(rec, constants.FieldPaymentTerms),
		ApplicationMethod:       str(rec, constants.FieldApplicationMethod),
		EvaluationCriteria:      str(rec, constants.FieldEvaluationCriteria),
		PreviousAcceptanceRate:  dec(rec, constants.FieldPreviousAcceptanceRate),
		PriorityGroups:          rec.Strings(constants.FieldPriorityGroups),
		LegalEntityType:         str(rec, constants.FieldLegalEntityType),
		FundingSource:           str(rec, constants.FieldFundingSource),
		ReportingRequirements:   str(rec, constants.FieldReportingRequirements),
		ComplianceRequirements:  str(rec, constants.FieldComplianceRequirements),
		Language:                str(rec, constants.FieldLanguage),
		TechnicalSupport:        str(rec, constants.FieldTechnicalSupport),
		MatchingAlgorithmScore:  dec(rec, constants.FieldMatchingAlgorithmScore),
		ApplicationRequirements: rec.Strings(constants.FieldApplicationRequirements),
		ExtractionStatus:        str(rec, constants.FieldExtractionStatus),
		CoverageScore:           score.CoverageScore,
		RequiresReview:          score.RequiresHumanReview(),
		Audit:                   rec.Audit,
	}

	if t, ok := rec.Get(constants.FieldDeadline).(time.Time); ok {
		s.Deadline = &t
	}
	if steps, ok := rec.Get(constants.FieldQuestionnaireSteps).([]any); ok {
		s.QuestionnaireSteps = steps
	}
	return s
}

func str(rec *normalize.Record, field string) string {
	s, _ := rec.Get(field).(string)
	return s
}

func dec(rec *normalize.Record, field string) *decimal.Decimal {
	d, ok := rec.Get(field).(decimal.Decimal)
	if !ok {
		return nil
	}
	return &d
}
