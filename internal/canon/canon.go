// Package canon implements the registry's canonical JSON normal form: a
// deterministic, byte-exact UTF-8 encoding used as the content-address
// (dedup key) for a JSON value. Two JSON values are equivalent under this
// package iff their canonical byte strings are equal.
//
// Object keys are sorted by the UTF-8 byte sequence of the key, arrays
// keep their input order, and non-ASCII text is emitted as raw UTF-8
// rather than \uXXXX-escaped, matching the original Rust/serde_json core
// this registry was distilled from.
package canon

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"jsonregistry/internal/errs"
)

// Canonicalise converts a host JSON value into its canonical byte
// representation. v must be built from the closed variant set: nil, bool,
// json.Number, float64, int, int64, string, []any, and map[string]any.
// Any other dynamic type, or a non-finite float, fails with a *errs.BadValue.
func Canonicalise(v any) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendValue(buf []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if val {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case json.Number:
		return appendNumberString(buf, val.String())
	case int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(buf, val, 10), nil
	case float64:
		return appendFloat(buf, val)
	case string:
		return appendString(buf, val), nil
	case []any:
		return appendArray(buf, val)
	case map[string]any:
		return appendObject(buf, val)
	default:
		return nil, errs.NewBadValue("canonicalise: unsupported value type %T", v)
	}
}

// appendNumberString re-emits a json.Number's decimal text after
// classifying it as integral or fractional, so encoding/json-decoded
// input (which produces json.Number when UseNumber is set) canonicalises
// identically to native Go int/float64 input.
func appendNumberString(buf []byte, s string) ([]byte, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if isIntegralText(s) {
			i, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				return strconv.AppendInt(buf, i, 10), nil
			}
		}
		return appendFloat(buf, f)
	}
	return nil, errs.NewBadValue("canonicalise: invalid number literal %q", s)
}

func isIntegralText(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E':
			return false
		}
	}
	return true
}

// appendFloat writes the shortest round-trippable decimal for f, with an
// explicit fractional part (3.0, never 3). NaN and infinities are
// rejected per §4.1.
func appendFloat(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errs.NewBadValue("canonicalise: non-finite float is not representable")
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, f, 'f', -1, 64)
	hasDot := false
	for _, b := range buf[start:] {
		if b == '.' {
			hasDot = true
			break
		}
	}
	if !hasDot {
		buf = append(buf, '.', '0')
	}
	return buf, nil
}

func appendArray(buf []byte, arr []any) ([]byte, error) {
	buf = append(buf, '[')
	for i, elem := range arr {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendValue(buf, elem)
		if err != nil {
			return nil, err
		}
	}
	return append(buf, ']'), nil
}

func appendObject(buf []byte, obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Sort(byUTF8Bytes(keys))

	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendString(buf, k)
		buf = append(buf, ':')
		var err error
		buf, err = appendValue(buf, obj[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
	}
	return append(buf, '}'), nil
}

// byUTF8Bytes sorts strings by the raw byte order of their UTF-8 encoding.
// Go's native string comparison already orders by byte value, but the
// type makes the intent explicit at the call site and guards against a
// future switch to code-point or locale-aware comparison.
type byUTF8Bytes []string

func (s byUTF8Bytes) Len() int           { return len(s) }
func (s byUTF8Bytes) Less(i, j int) bool { return s[i] < s[j] }
func (s byUTF8Bytes) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// appendString writes s as a JSON string literal with the minimum escaping
// RFC 8259 requires: quote, backslash, and C0 controls are escaped;
// everything else, including non-ASCII code points, is copied as raw
// UTF-8 bytes.
func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(buf, fmt.Sprintf(`\u%04x`, r)...)
			} else {
				buf = append(buf, s[i:i+size]...)
			}
		}
		i += size
	}
	return append(buf, '"')
}
