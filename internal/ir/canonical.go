package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes v as RFC 8785 canonical JSON. Every content hash
// in groupwire is computed over this encoding and nothing else.
//
// Relative to encoding/json: object keys are ordered by UTF-16 code units,
// strings are NFC-normalized and written without HTML escaping, and floats
// and null are rejected.
func MarshalCanonical(v any) ([]byte, error) {
	return appendCanonical(nil, v)
}

func appendCanonical(dst []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case IRString:
		return appendCanonicalString(dst, string(val))
	case string:
		return appendCanonicalString(dst, val)
	case IRInt:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(dst, val, 10), nil
	case int:
		return strconv.AppendInt(dst, int64(val), 10), nil
	case IRBool:
		return strconv.AppendBool(dst, bool(val)), nil
	case bool:
		return strconv.AppendBool(dst, val), nil
	case IRArray:
		return appendCanonicalArray(dst, val)
	case IRObject:
		return appendCanonicalObject(dst, val)
	case []any, map[string]any:
		converted, err := ToIRValue(val)
		if err != nil {
			return nil, err
		}
		return appendCanonical(dst, converted)
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func appendCanonicalArray(dst []byte, arr IRArray) ([]byte, error) {
	dst = append(dst, '[')
	for i, elem := range arr {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendCanonical(dst, elem); err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	return append(dst, ']'), nil
}

func appendCanonicalObject(dst []byte, obj IRObject) ([]byte, error) {
	dst = append(dst, '{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendCanonicalString(dst, k); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		dst = append(dst, ':')
		if dst, err = appendCanonical(dst, obj[k]); err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	return append(dst, '}'), nil
}

// appendCanonicalString escapes only control characters, backslash and
// quote. <, >, & and U+2028/U+2029 are written literally.
func appendCanonicalString(dst []byte, s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	quoted := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return appendUnescapedSeparators(dst, quoted), nil
}

// appendUnescapedSeparators copies quoted into dst, turning the \u2028 and
// \u2029 escapes emitted by encoding/json back into literal characters. An
// escape preceded by an odd run of backslashes is literal text.
func appendUnescapedSeparators(dst, quoted []byte) []byte {
	if !bytes.Contains(quoted, []byte(`\u202`)) {
		return append(dst, quoted...)
	}
	backslashes := 0
	for i := 0; i < len(quoted); i++ {
		c := quoted[i]
		if c == '\\' && backslashes%2 == 0 && i+6 <= len(quoted) &&
			bytes.HasPrefix(quoted[i+1:], []byte("u202")) && (quoted[i+5] == '8' || quoted[i+5] == '9') {
			if quoted[i+5] == '8' {
				dst = append(dst, "\u2028"...)
			} else {
				dst = append(dst, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		dst = append(dst, c)
	}
	return dst
}
