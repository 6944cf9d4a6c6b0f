// Package coerce turns arbitrary extractor output into well-typed arrays.
//
// Extractors hand us whatever the page (or the model) produced: JSON arrays,
// python-style lists, comma strings, bare scalars, nulls. Coerce tries a fixed
// sequence of strategies and reports which one fired, so every transformation
// is auditable and deterministic.
package coerce

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/subsidy-tracker/internal/schema"
)

// Method identifies the strategy that produced a Result.
type Method string

const (
	MethodNullHandling  Method = "null_handling"
	MethodListCleanup   Method = "list_cleanup"
	MethodJSONParse     Method = "json_parse"
	MethodPythonStyle   Method = "python_style"
	MethodCSVComma      Method = "csv_split_comma"
	MethodCSVSemicolon  Method = "csv_split_semicolon"
	MethodNumericWrap   Method = "numeric_wrap"
	MethodSingleWrap    Method = "single_wrap"
	MethodEmptyString   Method = "empty_string"
	MethodEmptyFallback Method = "empty_fallback"
	MethodErrorFallback Method = "error_fallback"
)

// Result records one coercion: the array produced, the input it came from,
// and how we got from one to the other. Value is never nil when Success is true.
type Result struct {
	Value     []any
	Original  any
	Method    Method
	FieldName string
	Warnings  []string
	Timestamp string
	Success   bool
}

// AuditEntry flattens the result into a JSON-friendly map for audit logs.
func (r Result) AuditEntry() map[string]any {
	return map[string]any{
		"field":     r.FieldName,
		"method":    string(r.Method),
		"original":  fmt.Sprintf("%v", r.Original),
		"count":     len(r.Value),
		"warnings":  r.Warnings,
		"timestamp": r.Timestamp,
		"success":   r.Success,
	}
}

// Engine applies the coercion strategies. Stateless apart from the injected
// logger; safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	kindOf func(string) schema.Kind
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, kindOf: schema.FieldKind}
}

// Coerce converts value into an array for fieldName. It never panics and never
// returns a nil Value: any unexpected failure degrades to an error_fallback
// result with Success=false.
func (e *Engine) Coerce(value any, fieldName string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("coerce.panic", "field", fieldName, "panic", fmt.Sprintf("%v", r))
			res = e.result(fieldName, value, []any{}, MethodErrorFallback,
				[]string{fmt.Sprintf("unexpected failure: %v", r)}, false)
		}
	}()

	e.logger.Info("coerce.attempt",
		"field", fieldName,
		"value", fmt.Sprintf("%#v", value),
		"type", fmt.Sprintf("%T", value),
	)

	// 1. null handling
	if value == nil {
		return e.result(fieldName, value, []any{}, MethodNullHandling, nil, true)
	}

	// 2. already an array
	if elems, ok := asSequence(value); ok {
		kept, warnings := e.filterEmpty(fieldName, elems)
		return e.result(fieldName, value, kept, MethodListCleanup, warnings, true)
	}

	// 3. stringify and check for empty / placeholder-null forms
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Map && rv.Len() == 0 {
		return e.result(fieldName, value, []any{}, MethodEmptyString, nil, true)
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", value))
	if isEmptyForm(s) {
		return e.result(fieldName, value, []any{}, MethodEmptyString, nil, true)
	}

	// 4. bracketed: strict JSON first, permissive python-style list second
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if elems, err := parseJSONArray(s); err == nil {
			kept, warnings := e.filterEmpty(fieldName, elems)
			return e.result(fieldName, value, kept, MethodJSONParse, warnings, true)
		}
		e.logger.Warn("coerce.json_parse_failed", "field", fieldName, "value", s)
		kept := parsePythonList(s)
		return e.result(fieldName, value, kept, MethodPythonStyle, nil, true)
	}

	// 5. delimiter split, comma wins over semicolon
	if strings.Contains(s, ",") {
		return e.result(fieldName, value, splitTokens(s, ","), MethodCSVComma, nil, true)
	}
	if strings.Contains(s, ";") {
		return e.result(fieldName, value, splitTokens(s, ";"), MethodCSVSemicolon, nil, true)
	}

	// 6. numeric fields: parse the whole string as one number
	if e.kindOf(fieldName) == schema.KindNumeric {
		if n, ok := parseNumber(s); ok {
			return e.result(fieldName, value, []any{n}, MethodNumericWrap, nil, true)
		}
	}

	// 7. single-value wrap
	if s != "" {
		return e.result(fieldName, value, []any{s}, MethodSingleWrap, nil, true)
	}

	// 8. nothing usable
	return e.result(fieldName, value, []any{}, MethodEmptyFallback, nil, true)
}

func (e *Engine) result(fieldName string, original any, value []any, method Method, warnings []string, success bool) Result {
	if value == nil {
		value = []any{}
	}
	e.logger.Info("coerce.done",
		"field", fieldName, "method", string(method), "count", len(value), "success", success,
	)
	return Result{
		Value:     value,
		Original:  original,
		Method:    method,
		FieldName: fieldName,
		Warnings:  warnings,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Success:   success,
	}
}

// filterEmpty drops nil and whitespace-only elements, one warning apiece.
func (e *Engine) filterEmpty(fieldName string, elems []any) ([]any, []string) {
	kept := make([]any, 0, len(elems))
	var warnings []string
	for i, el := range elems {
		if el == nil {
			warnings = append(warnings, fmt.Sprintf("dropped null element at index %d", i))
			continue
		}
		if strings.TrimSpace(fmt.Sprintf("%v", el)) == "" {
			warnings = append(warnings, fmt.Sprintf("dropped empty element at index %d", i))
			continue
		}
		kept = append(kept, el)
	}
	if len(warnings) > 0 {
		e.logger.Warn("coerce.filtered_elements", "field", fieldName, "dropped", len(warnings))
	}
	return kept, warnings
}

// asSequence reports whether value is a slice or array (strings and byte
// slices are handled on the string path).
func asSequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isEmptyForm matches the trimmed string forms that mean "nothing here".
func isEmptyForm(s string) bool {
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "null", "none", "undefined", "[]", "{}":
		return true
	}
	return false
}

func parseJSONArray(s string) ([]any, error) {
	var elems []any
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return nil, err
	}
	return elems, nil
}

// parsePythonList handles bracketed lists that are not valid JSON, e.g.
// ['a', 'b'] or [foo, bar]. It splits on commas outside quotes and strips
// surrounding quote characters from each token.
func parsePythonList(s string) []any {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []any{}
	}

	var tokens []string
	var sb strings.Builder
	var quote rune
	for _, r := range inner {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			sb.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			sb.WriteRune(r)
		case r == ',':
			tokens = append(tokens, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	tokens = append(tokens, sb.String())

	out := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(strings.TrimSpace(tok), `'"`)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func splitTokens(s, sep string) []any {
	parts := strings.Split(s, sep)
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// parseNumber parses s as int64 when it has no decimal point, float64 otherwise.
func parseNumber(s string) (any, bool) {
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}
