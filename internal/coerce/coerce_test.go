package coerce

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCoerce_Strategies(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name   string
		value  any
		field  string
		want   []any
		method Method
	}{
		{"nil value", nil, "sector", []any{}, MethodNullHandling},
		{"clean array", []any{"foo", "bar"}, "documents", []any{"foo", "bar"}, MethodListCleanup},
		{"array with empties", []any{"foo", nil, "", "bar"}, "documents", []any{"foo", "bar"}, MethodListCleanup},
		{"string slice", []string{"a", "b"}, "region", []any{"a", "b"}, MethodListCleanup},
		{"empty string", "", "sector", []any{}, MethodEmptyString},
		{"whitespace", "   ", "sector", []any{}, MethodEmptyString},
		{"literal null", "null", "sector", []any{}, MethodEmptyString},
		{"literal None", "None", "sector", []any{}, MethodEmptyString},
		{"literal undefined", "UNDEFINED", "sector", []any{}, MethodEmptyString},
		{"empty brackets", "[]", "sector", []any{}, MethodEmptyString},
		{"empty braces", "{}", "sector", []any{}, MethodEmptyString},
		{"empty map", map[string]any{}, "sector", []any{}, MethodEmptyString},
		{"json array", `["a","b"]`, "documents", []any{"a", "b"}, MethodJSONParse},
		{"json array with null", `["a",null,""]`, "documents", []any{"a"}, MethodJSONParse},
		{"python list single quotes", `['cereal', 'livestock']`, "sector", []any{"cereal", "livestock"}, MethodPythonStyle},
		{"python list bare tokens", `[foo, bar]`, "sector", []any{"foo", "bar"}, MethodPythonStyle},
		{"csv comma", "cereal, livestock", "sector", []any{"cereal", "livestock"}, MethodCSVComma},
		{"csv semicolon", "cereal; livestock", "sector", []any{"cereal", "livestock"}, MethodCSVSemicolon},
		{"comma beats semicolon", "a, b; c", "sector", []any{"a", "b; c"}, MethodCSVComma},
		{"numeric int wrap", "5000", "amount", []any{int64(5000)}, MethodNumericWrap},
		{"numeric float wrap", "72.5", "co_financing_rate", []any{72.5}, MethodNumericWrap},
		{"numeric field non-numeric", "variable", "amount", []any{"variable"}, MethodSingleWrap},
		{"numeric string on string field", "5000", "region", []any{"5000"}, MethodSingleWrap},
		{"single value", "PACA", "region", []any{"PACA"}, MethodSingleWrap},
		{"number input", 42, "amount", []any{int64(42)}, MethodNumericWrap},
		{"currency amount splits", "50,000 €", "amount", []any{"50", "000 €"}, MethodCSVComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Coerce(tt.value, tt.field)
			if !got.Success {
				t.Fatalf("Coerce(%v) success=false, warnings=%v", tt.value, got.Warnings)
			}
			if got.Method != tt.method {
				t.Errorf("method = %s, want %s", got.Method, tt.method)
			}
			if diff := cmp.Diff(tt.want, got.Value); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerce_FilterWarnings(t *testing.T) {
	e := testEngine()
	got := e.Coerce([]any{"foo", nil, "  ", "bar"}, "documents")
	if len(got.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2 entries", got.Warnings)
	}
}

func TestCoerce_NeverPanicsAndAlwaysSequence(t *testing.T) {
	e := testEngine()
	inputs := []any{
		nil,
		"",
		"x",
		42,
		3.14,
		true,
		[]any{nil, nil},
		[3]int{1, 2, 3},
		map[string]any{"a": 1},
		struct{ X int }{X: 1},
		func() {},
		make(chan int),
		(*int)(nil),
	}
	for _, field := range []string{"amount", "sector", "no_such_field"} {
		for _, in := range inputs {
			got := e.Coerce(in, field)
			if got.Value == nil {
				t.Errorf("Coerce(%#v, %s) returned nil Value", in, field)
			}
		}
	}
}

func TestCoerce_Idempotence(t *testing.T) {
	e := testEngine()
	inputs := []any{
		"cereal, livestock",
		`["a","b"]`,
		"5000",
		"PACA",
		nil,
		[]any{"x", "y"},
	}
	for _, in := range inputs {
		for _, field := range []string{"sector", "amount"} {
			first := e.Coerce(in, field)
			second := e.Coerce(first.Value, field)
			if second.Method != MethodListCleanup && len(first.Value) > 0 {
				t.Errorf("re-coercing %v: method = %s, want list_cleanup", in, second.Method)
			}
			if diff := cmp.Diff(first.Value, second.Value); diff != "" {
				t.Errorf("Coerce not idempotent for %#v on %s (-first +second):\n%s", in, field, diff)
			}
		}
	}
}

func TestCoerce_AuditEntry(t *testing.T) {
	e := testEngine()
	res := e.Coerce("a, b", "sector")
	entry := res.AuditEntry()
	if entry["field"] != "sector" {
		t.Errorf("audit field = %v", entry["field"])
	}
	if entry["method"] != string(MethodCSVComma) {
		t.Errorf("audit method = %v", entry["method"])
	}
	if entry["count"] != 2 {
		t.Errorf("audit count = %v", entry["count"])
	}
	if entry["success"] != true {
		t.Errorf("audit success = %v", entry["success"])
	}
}

func TestParsePythonList_NestedQuotes(t *testing.T) {
	got := parsePythonList(`['a, with comma', 'b']`)
	want := []any{"a, with comma", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parsePythonList mismatch (-want +got):\n%s", diff)
	}
}
