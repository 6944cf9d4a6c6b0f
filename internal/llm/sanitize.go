package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/joseph-ayodele/subsidy-tracker/constants"
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (funding_amount -> amount, link -> url, ...)
// - Drops null optionals and unknown keys (additionalProperties = false friendliness)
// - Trims obvious string fields
// The heavy lifting (array coercion, typing) is the normalizer's job; this pass
// only makes the payload schema-shaped.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			// don't overwrite existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	renamed("funding_amount", constants.FieldAmount)
	renamed("montant", constants.FieldAmount)
	renamed("subsidy_amount", constants.FieldAmount)
	renamed("link", constants.FieldURL)
	renamed("source_url", constants.FieldURL)
	renamed("regions", constants.FieldRegion)
	renamed("sectors", constants.FieldSector)
	renamed("organization", constants.FieldAgency)
	renamed("organisme", constants.FieldAgency)
	renamed("application_deadline", constants.FieldDeadline)
	renamed("date_limite", constants.FieldDeadline)
	renamed("required_documents", constants.FieldDocuments)
	renamed("extraction_status", constants.FieldExtractionStatus)

	// 2) remove unknown keys
	allowed := make(map[string]struct{}, len(constants.CanonicalFields)+1)
	for _, f := range constants.CanonicalFields {
		allowed[f] = struct{}{}
	}
	allowed["attachment_sources_used"] = struct{}{}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 3) trim obvious strings; empty strings stay (the normalizer records them
	// as missing, which is signal we want)
	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = strings.TrimSpace(s)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
