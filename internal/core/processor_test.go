package core

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/joseph-ayodele/subsidy-tracker/internal/llm"
	"github.com/joseph-ayodele/subsidy-tracker/internal/repository"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, _, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repository.Migrate(context.Background(), db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testProcessor(t *testing.T) (*Processor, repository.SubsidyRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testDB(t)
	subsidies := repository.NewSubsidyRepository(db, logger)
	rawLogs := repository.NewRawLogRepository(db, logger)
	return NewProcessor(logger, subsidies, rawLogs), subsidies
}

func TestProcess_EndToEnd(t *testing.T) {
	proc, subsidies := testProcessor(t)
	ctx := context.Background()

	payload := []byte(`{
		"title": "Aide à la plantation",
		"funding_amount": "5000",
		"region": "PACA",
		"sector": "viticulture, aromatics",
		"deadline": "2025-03-31",
		"internal_notes": "drop me"
	}`)

	res, err := proc.Process(ctx, RawInput{SourceURL: "https://example.org/aide/1", Payload: payload})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.URL != "https://example.org/aide/1" {
		t.Errorf("url = %q", res.URL)
	}
	if len(res.Dropped) == 0 {
		t.Error("sanitizer reported nothing dropped")
	}

	stored, err := subsidies.GetByURL(ctx, res.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "Aide à la plantation" {
		t.Errorf("title = %q", stored.Title)
	}
	if len(stored.Amounts) != 1 || stored.Amounts[0].IntPart() != 5000 {
		t.Errorf("amounts = %v", stored.Amounts)
	}
	if len(stored.Sector) != 2 {
		t.Errorf("sector = %v", stored.Sector)
	}
	if stored.Deadline == nil {
		t.Error("deadline missing")
	}
}

func TestProcess_RetrySafe(t *testing.T) {
	proc, subsidies := testProcessor(t)
	ctx := context.Background()

	in := RawInput{
		SourceURL: "https://example.org/aide/2",
		Payload:   []byte(`{"title":"Aide","amount":"1000"}`),
	}

	first, err := proc.Process(ctx, in)
	if err != nil {
		t.Fatalf("first process: %v", err)
	}
	second, err := proc.Process(ctx, in)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("reprocessing changed id: %s != %s", first.ID, second.ID)
	}

	all, err := subsidies.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("rows = %d, want 1", len(all))
	}
}

func TestProcess_MalformedFieldsDegrade(t *testing.T) {
	proc, subsidies := testProcessor(t)
	ctx := context.Background()

	payload := []byte(`{
		"title": "Aide",
		"amount": "50,000 €",
		"deadline": "31/12/2024",
		"requirements_extraction_status": "done"
	}`)

	res, err := proc.Process(ctx, RawInput{SourceURL: "https://example.org/aide/3", Payload: payload})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Score.RequiresHumanReview() {
		t.Error("degraded record not flagged for review")
	}

	stored, err := subsidies.GetByURL(ctx, res.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Amounts) != 0 {
		t.Errorf("amounts = %v, want empty", stored.Amounts)
	}
	if stored.Deadline != nil {
		t.Errorf("deadline = %v, want nil", stored.Deadline)
	}
	if stored.ExtractionStatus != "pending" {
		t.Errorf("status = %q, want pending", stored.ExtractionStatus)
	}
	if len(stored.Audit.ValidationNotes) == 0 {
		t.Error("no validation notes recorded")
	}
}

type stubExtractor struct {
	fields map[string]any
	raw    []byte
	err    error
}

func (s *stubExtractor) ExtractFields(context.Context, llm.ExtractRequest) (map[string]any, []byte, error) {
	return s.fields, s.raw, s.err
}

func TestProcessPage(t *testing.T) {
	proc, subsidies := testProcessor(t)
	ctx := context.Background()

	ex := &stubExtractor{fields: map[string]any{
		"title":  "Aide aux serres",
		"amount": "jusqu'à 15000",
		"region": "Occitanie",
	}}
	req := llm.ExtractRequest{
		SourceURL: "https://example.org/aide/5",
		PageText:  "Subvention de 40% du montant, plafond 15000 €.",
		AttachmentTexts: map[string]string{
			"notice.pdf": "Aide jusqu'à 15000 € par exploitation.",
		},
	}

	res, err := proc.ProcessPage(ctx, ex, req)
	if err != nil {
		t.Fatalf("process page: %v", err)
	}
	if res.URL != req.SourceURL {
		t.Errorf("url = %q", res.URL)
	}
	if _, err := subsidies.GetByURL(ctx, req.SourceURL); err != nil {
		t.Fatalf("get: %v", err)
	}

	ex.err = context.DeadlineExceeded
	if _, err := proc.ProcessPage(ctx, ex, req); err == nil {
		t.Error("expected extractor error to propagate")
	}
}

func TestProcess_UndecodablePayload(t *testing.T) {
	proc, _ := testProcessor(t)
	if _, err := proc.Process(context.Background(), RawInput{
		SourceURL: "https://example.org/aide/4",
		Payload:   []byte(`{broken`),
	}); err == nil {
		t.Error("expected error for undecodable payload")
	}
}

func TestProcess_NoURLRejected(t *testing.T) {
	proc, _ := testProcessor(t)
	if _, err := proc.Process(context.Background(), RawInput{
		Payload: []byte(`{"title":"Aide"}`),
	}); err == nil {
		t.Error("expected error when neither payload nor input carries a url")
	}
}
