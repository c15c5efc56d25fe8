package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"supaco_backend/platform/sanitize"
)

const (
	maxNameRunes = 200
	maxTextRunes = 5000
	// maxAmount is the first value NUMERIC(12,2) cannot hold.
	maxAmount = 1e10
	dateLayout   = time.DateOnly
)

// argError is a rejected tool argument. It renders through the locale.
type argError struct {
	key   string
	field string
	value string
}

func (e *argError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.key, e.field, e.value)
}

func (e *argError) message(loc *Locale) string {
	return loc.Message(e.key, struct{ Field, Value string }{Field: e.field, Value: e.value})
}

// toolArgs reads model-supplied arguments. Every string goes through sanitize.
type toolArgs map[string]any

func (a toolArgs) keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a toolArgs) raw(key string) string {
	return argString(a[key])
}

// line returns a single-line value, or "" when absent.
func (a toolArgs) line(key string) string {
	return sanitize.Line(a.raw(key), maxNameRunes)
}

func (a toolArgs) requiredLine(key string) (string, error) {
	v := a.line(key)
	if v == "" {
		return "", &argError{key: msgMissingArgument, field: key}
	}
	return v, nil
}

func (a toolArgs) requiredText(key string) (string, error) {
	v := sanitize.Text(a.raw(key))
	if len([]rune(v)) > maxTextRunes {
		v = string([]rune(v)[:maxTextRunes])
	}
	if v == "" {
		return "", &argError{key: msgMissingArgument, field: key}
	}
	return v, nil
}

func (a toolArgs) optLine(key string) *string {
	v := a.line(key)
	if v == "" {
		return nil
	}
	return &v
}

func (a toolArgs) optText(key string) *string {
	v, err := a.requiredText(key)
	if err != nil {
		return nil
	}
	return &v
}

// enum returns the value of key if it is one of allowed, fallback when absent.
func (a toolArgs) enum(key string, allowed []string, fallback string) (string, error) {
	v := a.line(key)
	if v == "" {
		if fallback == "" {
			return "", &argError{key: msgMissingArgument, field: key}
		}
		return fallback, nil
	}
	for _, candidate := range allowed {
		if v == candidate {
			return v, nil
		}
	}
	return "", &argError{key: msgInvalidValue, field: key, value: v}
}

// optNumber accepts JSON numbers and numeric strings below maxAmount. Zero is
// treated as absent.
func (a toolArgs) optNumber(key string) (*float64, error) {
	var n float64
	switch v := a[key].(type) {
	case nil:
		return nil, nil
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, &argError{key: msgInvalidValue, field: key, value: v.String()}
		}
		n = f
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &argError{key: msgInvalidValue, field: key, value: v}
		}
		n = f
	default:
		return nil, &argError{key: msgInvalidValue, field: key, value: argString(v)}
	}
	if n < 0 || n >= maxAmount || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, &argError{key: msgInvalidValue, field: key, value: argString(a[key])}
	}
	if n == 0 {
		return nil, nil
	}
	return &n, nil
}

// optDate parses a YYYY-MM-DD date.
func (a toolArgs) optDate(key string) (*time.Time, error) {
	v := a.line(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, &argError{key: msgInvalidDate, field: key, value: v}
	}
	return &t, nil
}

// argString renders an argument value as text. Whole numbers print without a
// fractional part.
func argString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
