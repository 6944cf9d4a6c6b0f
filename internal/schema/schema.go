// Package schema is the static registry describing how each canonical subsidy
// field is typed. It is read-only after init and safe for concurrent use.
package schema

import "github.com/joseph-ayodele/subsidy-tracker/constants"

// Kind describes the element type of a canonical field.
type Kind string

const (
	KindString  Kind = "string"
	KindNumeric Kind = "numeric"
	KindDate    Kind = "date"
	KindObject  Kind = "object"
)

type fieldSpec struct {
	isArray bool
	kind    Kind
}

// fieldTable is the authoritative field configuration. Fields absent from the
// table are treated as scalar strings.
var fieldTable = map[string]fieldSpec{
	constants.FieldURL:                     {isArray: false, kind: KindString},
	constants.FieldTitle:                   {isArray: false, kind: KindString},
	constants.FieldDescription:             {isArray: false, kind: KindString},
	constants.FieldEligibility:             {isArray: false, kind: KindString},
	constants.FieldDocuments:               {isArray: true, kind: KindString},
	constants.FieldDeadline:                {isArray: false, kind: KindDate},
	constants.FieldAmount:                  {isArray: true, kind: KindNumeric},
	constants.FieldProgram:                 {isArray: false, kind: KindString},
	constants.FieldAgency:                  {isArray: false, kind: KindString},
	constants.FieldRegion:                  {isArray: true, kind: KindString},
	constants.FieldSector:                  {isArray: true, kind: KindString},
	constants.FieldFundingType:             {isArray: false, kind: KindString},
	constants.FieldCoFinancingRate:         {isArray: false, kind: KindNumeric},
	constants.FieldProjectDuration:         {isArray: false, kind: KindString},
	constants.FieldPaymentTerms:            {isArray: false, kind: KindString},
	constants.FieldApplicationMethod:       {isArray: false, kind: KindString},
	constants.FieldEvaluationCriteria:      {isArray: false, kind: KindString},
	constants.FieldPreviousAcceptanceRate:  {isArray: false, kind: KindNumeric},
	constants.FieldPriorityGroups:          {isArray: true, kind: KindString},
	constants.FieldLegalEntityType:         {isArray: false, kind: KindString},
	constants.FieldFundingSource:           {isArray: false, kind: KindString},
	constants.FieldReportingRequirements:   {isArray: false, kind: KindString},
	constants.FieldComplianceRequirements:  {isArray: false, kind: KindString},
	constants.FieldLanguage:                {isArray: false, kind: KindString},
	constants.FieldTechnicalSupport:        {isArray: false, kind: KindString},
	constants.FieldMatchingAlgorithmScore:  {isArray: false, kind: KindNumeric},
	constants.FieldApplicationRequirements: {isArray: true, kind: KindString},
	constants.FieldQuestionnaireSteps:      {isArray: true, kind: KindObject},
	constants.FieldExtractionStatus:        {isArray: false, kind: KindString},
}

// IsArrayField reports whether the named canonical field holds an array.
// Unknown names are scalar.
func IsArrayField(name string) bool {
	return fieldTable[name].isArray
}

// FieldKind returns the element kind for the named field. Unknown names
// default to string.
func FieldKind(name string) Kind {
	spec, ok := fieldTable[name]
	if !ok {
		return KindString
	}
	return spec.kind
}

// ArrayFields returns the canonical array fields in canonical order.
func ArrayFields() []string {
	out := make([]string, 0, 8)
	for _, name := range constants.CanonicalFields {
		if fieldTable[name].isArray {
			out = append(out, name)
		}
	}
	return out
}
