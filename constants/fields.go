package constants

// Canonical field names for a normalized subsidy record. The persistence schema,
// the extraction JSON schema and the quality validator all key off these exact
// strings, so treat them as stable.
const (
	FieldURL                     = "url"
	FieldTitle                   = "title"
	FieldDescription             = "description"
	FieldEligibility             = "eligibility"
	FieldDocuments               = "documents"
	FieldDeadline                = "deadline"
	FieldAmount                  = "amount"
	FieldProgram                 = "program"
	FieldAgency                  = "agency"
	FieldRegion                  = "region"
	FieldSector                  = "sector"
	FieldFundingType             = "funding_type"
	FieldCoFinancingRate         = "co_financing_rate"
	FieldProjectDuration         = "project_duration"
	FieldPaymentTerms            = "payment_terms"
	FieldApplicationMethod       = "application_method"
	FieldEvaluationCriteria      = "evaluation_criteria"
	FieldPreviousAcceptanceRate  = "previous_acceptance_rate"
	FieldPriorityGroups          = "priority_groups"
	FieldLegalEntityType         = "legal_entity_type"
	FieldFundingSource           = "funding_source"
	FieldReportingRequirements   = "reporting_requirements"
	FieldComplianceRequirements  = "compliance_requirements"
	FieldLanguage                = "language"
	FieldTechnicalSupport        = "technical_support"
	FieldMatchingAlgorithmScore  = "matching_algorithm_score"
	FieldApplicationRequirements = "application_requirements"
	FieldQuestionnaireSteps      = "questionnaire_steps"
	FieldExtractionStatus        = "requirements_extraction_status"
)

// CanonicalFields is the fixed iteration order used by the normalizer and the
// exporter. Every normalized record carries exactly this field set.
var CanonicalFields = []string{
	FieldURL,
	FieldTitle,
	FieldDescription,
	FieldEligibility,
	FieldDocuments,
	FieldDeadline,
	FieldAmount,
	FieldProgram,
	FieldAgency,
	FieldRegion,
	FieldSector,
	FieldFundingType,
	FieldCoFinancingRate,
	FieldProjectDuration,
	FieldPaymentTerms,
	FieldApplicationMethod,
	FieldEvaluationCriteria,
	FieldPreviousAcceptanceRate,
	FieldPriorityGroups,
	FieldLegalEntityType,
	FieldFundingSource,
	FieldReportingRequirements,
	FieldComplianceRequirements,
	FieldLanguage,
	FieldTechnicalSupport,
	FieldMatchingAlgorithmScore,
	FieldApplicationRequirements,
	FieldQuestionnaireSteps,
	FieldExtractionStatus,
}

// PlaceholderValues are generic strings an extractor emits when a page says
// nothing useful. A field holding one of these does not count as complete.
// Matching is case-insensitive on prefixes.
var PlaceholderValues = []string{
	"not specified",
	"not available",
	"no specific",
	"see website",
	"n/a",
	"none",
	"unknown",
	"tbd",
	"to be determined",
}
