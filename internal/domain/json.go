package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed marks a structurally valid JSON document whose shape does not fit the snapshot model.
var ErrMalformed = errors.New("malformed snapshot")

// decodeObject walks a JSON object in document order. A null document is a no-op.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object, got %v", ErrMalformed, tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: expected object key, got %v", ErrMalformed, tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// parseNumber reports whether raw is a JSON number. Out-of-range literals come back as ±Inf.
func parseNumber(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return v, true
}

type objectWriter struct {
	buf   bytes.Buffer
	count int
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	w.raw(key, encoded)
	return nil
}

func (w *objectWriter) raw(key string, encoded []byte) {
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(encoded)
	w.count++
}

func (w *objectWriter) bytes() []byte {
	w.buf.WriteByte('}')
	return w.buf.Bytes()
}

func isObject(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) > 0 && s[0] == '{'
}

// looseString reads a JSON string, or the literal text of a number or boolean. Anything
// else is empty.
func looseString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if s[0] == '"' {
		var out string
		if err := json.Unmarshal(raw, &out); err != nil {
			return ""
		}
		return out
	}
	if _, ok := parseNumber(raw); ok || s == "true" || s == "false" {
		return s
	}
	return ""
}

// looseInt accepts a number, integral or not, or a numeric string. Fractions are truncated;
// anything else is 0.
func looseInt(raw json.RawMessage) int {
	v, ok := parseNumber(raw)
	if !ok {
		v, ok = parseNumber(json.RawMessage(looseString(raw)))
	}
	if !ok || !isFinite(v) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return int(v)
}

// looseBool accepts true/false, their string forms, and numbers (non-zero is true).
func looseBool(raw json.RawMessage) bool {
	if v, ok := parseNumber(raw); ok {
		return v != 0
	}
	b, err := strconv.ParseBool(looseString(raw))
	return err == nil && b
}

// looseStrings reads an array of ids. Entries that are neither strings nor numbers are
// dropped; a value that is not an array reads as nil.
func looseStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := parseNumber(item); ok || bytes.HasPrefix(bytes.TrimSpace(item), []byte(`"`)) {
			out = append(out, looseString(item))
		}
	}
	return out
}
