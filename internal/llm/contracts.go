package llm

import "context"

// ExtractRequest carries everything the extractor needs for one listing.
type ExtractRequest struct {
	PageText        string
	AttachmentTexts map[string]string // attachment name -> extracted text
	SourceURL       string
	Language        string
}

// FieldExtractor is the boundary our pipeline depends on. Implementations
// return the model's best-effort field mapping plus the raw response bytes;
// values may be arbitrarily malformed and are cleaned up downstream.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (map[string]any, []byte /*rawJSON*/, error)
}
