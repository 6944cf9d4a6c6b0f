package llm

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeAndSanitizeJSON_Synonyms(t *testing.T) {
	raw := []byte(`{"funding_amount":"5000","link":"https://example.org/a","title":"Aide","regions":"PACA"}`)
	out, dropped, err := NormalizeAndSanitizeJSON(raw, discardLogger())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if m["amount"] != "5000" {
		t.Errorf("amount = %v", m["amount"])
	}
	if m["url"] != "https://example.org/a" {
		t.Errorf("url = %v", m["url"])
	}
	if m["region"] != "PACA" {
		t.Errorf("region = %v", m["region"])
	}
	if len(dropped) != 3 {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestNormalizeAndSanitizeJSON_UnknownKeysDropped(t *testing.T) {
	raw := []byte(`{"title":"Aide","internal_notes":"x","confidence":0.9}`)
	out, dropped, err := NormalizeAndSanitizeJSON(raw, discardLogger())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if _, ok := m["internal_notes"]; ok {
		t.Error("unknown key survived")
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestNormalizeAndSanitizeJSON_RenameDoesNotOverwrite(t *testing.T) {
	raw := []byte(`{"amount":"1000","funding_amount":"9999","title":"Aide"}`)
	out, _, err := NormalizeAndSanitizeJSON(raw, discardLogger())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if m["amount"] != "1000" {
		t.Errorf("amount = %v, existing value should win", m["amount"])
	}
}

func TestNormalizeAndSanitizeJSON_BadJSON(t *testing.T) {
	if _, _, err := NormalizeAndSanitizeJSON([]byte(`{"title":`), discardLogger()); err == nil {
		t.Error("expected decode error")
	}
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schemaMap := BuildSubsidyJSONSchema()

	good := []byte(`{"url":"https://example.org/a","title":"Aide","amount":"5000","deadline":"2025-03-31"}`)
	if err := ValidateJSONAgainstSchema(schemaMap, good); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	missingRequired := []byte(`{"amount":"5000"}`)
	if err := ValidateJSONAgainstSchema(schemaMap, missingRequired); err == nil {
		t.Error("payload without url/title accepted")
	}

	badDeadline := []byte(`{"url":"https://example.org/a","title":"Aide","deadline":"31/12/2024"}`)
	if err := ValidateJSONAgainstSchema(schemaMap, badDeadline); err == nil {
		t.Error("malformed deadline accepted")
	}
}
