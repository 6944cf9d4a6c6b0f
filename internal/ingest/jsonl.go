// Package ingest reads raw extraction payloads produced by the scraping layer.
// The handover format is JSON lines: one envelope per listing.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/subsidy-tracker/internal/core"
)

// envelope is one JSONL line. Fields holds the extractor's raw output; when
// the line carries no envelope keys at all we treat the whole object as Fields.
type envelope struct {
	URL        string          `json:"url"`
	Fields     json.RawMessage `json:"fields"`
	SourceText string          `json:"source_text"`
}

// lines longer than this are certainly not listing payloads
const maxLineBytes = 8 << 20

type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read streams raw inputs from r, invoking fn per payload. Malformed lines are
// logged and skipped; a batch never aborts on a single bad listing. Returns
// the number of payloads handed to fn.
func (rd *Reader) Read(ctx context.Context, r io.Reader, fn func(core.RawInput) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	count := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return count, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			rd.logger.Warn("ingest.bad_line", "line", lineNo, "error", err)
			continue
		}

		payload := []byte(env.Fields)
		if len(payload) == 0 {
			// bare payload without envelope keys
			payload = append([]byte(nil), line...)
		}

		in := core.RawInput{
			SourceURL:  env.URL,
			Payload:    payload,
			SourceText: env.SourceText,
		}
		if err := fn(in); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}

	rd.logger.Info("ingest.done", "lines", lineNo, "payloads", count)
	return count, nil
}
