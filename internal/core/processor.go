// Package core wires the normalization pipeline together: one raw extraction
// payload in, one scored and persisted subsidy record out.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/subsidy-tracker/internal/common"
	"github.com/joseph-ayodele/subsidy-tracker/internal/entity"
	"github.com/joseph-ayodele/subsidy-tracker/internal/llm"
	"github.com/joseph-ayodele/subsidy-tracker/internal/normalize"
	"github.com/joseph-ayodele/subsidy-tracker/internal/quality"
	"github.com/joseph-ayodele/subsidy-tracker/internal/repository"
)

// RawInput is one extraction payload handed over by the scraping/LLM layer.
type RawInput struct {
	SourceURL  string // idempotency key when the payload itself lacks a url
	Payload    []byte // raw extractor JSON
	SourceText string // page/attachment text, used for complexity checks
}

// ProcessResult reports what happened to one payload.
type ProcessResult struct {
	ID      uuid.UUID
	URL     string
	Score   quality.Score
	Dropped []string // keys the sanitizer renamed or removed
}

// Processor coordinates sanitize → normalize → score → upsert for one raw
// payload. Record-level problems degrade to audit notes; only undecodable
// input or a persistence failure is an error.
type Processor struct {
	logger     *slog.Logger
	normalizer *normalize.Normalizer
	validator  *quality.Validator
	subsidies  repository.SubsidyRepository
	rawLogs    repository.RawLogRepository
	schemaMap  map[string]any
}

func NewProcessor(
	logger *slog.Logger,
	subsidies repository.SubsidyRepository,
	rawLogs repository.RawLogRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:     logger,
		normalizer: normalize.NewNormalizer(logger),
		validator:  quality.NewValidator(logger),
		subsidies:  subsidies,
		rawLogs:    rawLogs,
		schemaMap:  llm.BuildSubsidyJSONSchema(),
	}
}

// ProcessPage extracts fields from a scraped page via ex and feeds the result
// through the pipeline. The page plus attachment texts become the source text
// for the complexity checks.
func (p *Processor) ProcessPage(ctx context.Context, ex llm.FieldExtractor, req llm.ExtractRequest) (*ProcessResult, error) {
	fields, rawJSON, err := ex.ExtractFields(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extract fields for %s: %w", req.SourceURL, err)
	}
	if len(rawJSON) == 0 {
		if rawJSON, err = json.Marshal(fields); err != nil {
			return nil, fmt.Errorf("encode extracted fields: %w", err)
		}
	}

	names := make([]string, 0, len(req.AttachmentTexts))
	for name := range req.AttachmentTexts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(req.PageText)
	for _, name := range names {
		sb.WriteString("\n")
		sb.WriteString(req.AttachmentTexts[name])
	}

	return p.Process(ctx, RawInput{
		SourceURL:  req.SourceURL,
		Payload:    rawJSON,
		SourceText: sb.String(),
	})
}

// Process runs one payload through the pipeline. Normalization is a pure
// function of the input, so retrying after a persistence failure is safe.
func (p *Processor) Process(ctx context.Context, in RawInput) (*ProcessResult, error) {
	if p.rawLogs != nil && in.SourceURL != "" {
		// best-effort: losing a raw log never blocks normalization
		if _, err := p.rawLogs.Insert(ctx, in.SourceURL, string(in.Payload)); err != nil {
			p.logger.Warn("processor.rawlog.failed", "url", in.SourceURL, "error", err)
		}
	}

	sanitized, dropped, err := llm.NormalizeAndSanitizeJSON(in.Payload, p.logger)
	if err != nil {
		return nil, fmt.Errorf("sanitize payload: %w", err)
	}

	if err := llm.ValidateJSONAgainstSchema(p.schemaMap, sanitized); err != nil {
		// advisory only: the normalizer tolerates shape violations
		p.logger.Warn("processor.schema.mismatch", "url", in.SourceURL, "error", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(sanitized, &raw); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	rec := p.normalizer.Normalize(raw)
	score := p.validator.Validate(rec, in.SourceText)

	sub := entity.FromRecord(rec, score)
	if sub.URL == "" {
		sub.URL = in.SourceURL
	}
	if sub.URL == "" {
		return nil, common.NewAppError("NO_IDEMPOTENCY_KEY", "payload has no url and no source url", common.ErrInvalidInput)
	}

	id, err := p.subsidies.Upsert(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("upsert subsidy: %w", err)
	}

	p.logger.Info("processor.ok",
		"url", sub.URL,
		"id", id,
		"score", score.CoverageScore,
		"level", string(score.Level()),
		"requires_review", sub.RequiresReview,
	)
	return &ProcessResult{ID: id, URL: sub.URL, Score: score, Dropped: dropped}, nil
}
