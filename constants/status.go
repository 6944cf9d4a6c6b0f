package constants

import "strings"

// ExtractionStatus is the canonical status for requirements extraction.
type ExtractionStatus string

// Stable values (store these exact strings in DB).
const (
	ExtractionExtracted ExtractionStatus = "extracted"
	ExtractionNotFound  ExtractionStatus = "not_found"
	ExtractionPending   ExtractionStatus = "pending"
)

// CanonicalizeStatus maps arbitrary extractor output onto a valid status.
// Anything unrecognized degrades to pending; the second return reports
// whether the input matched.
func CanonicalizeStatus(input string) (ExtractionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case string(ExtractionExtracted):
		return ExtractionExtracted, true
	case string(ExtractionNotFound):
		return ExtractionNotFound, true
	case string(ExtractionPending):
		return ExtractionPending, true
	}
	return ExtractionPending, false
}

// QualityLevel buckets a coverage score for reporting.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "EXCELLENT" // >= 90
	QualityGood      QualityLevel = "GOOD"      // >= 75
	QualityFair      QualityLevel = "FAIR"      // >= 60
	QualityPoor      QualityLevel = "POOR"
)

// LevelForScore maps a 0-100 coverage score onto a quality level.
func LevelForScore(score float64) QualityLevel {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 60:
		return QualityFair
	default:
		return QualityPoor
	}
}
