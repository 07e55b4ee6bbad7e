// Package domain holds the pure submission logic: payload normalization,
// lead scoring and analytics aggregation. Nothing here performs I/O.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrTenantNotFound means the public client ID matched no client.
	ErrTenantNotFound = errors.New("client not found")
	// ErrInvalidPayload means the body was empty or not a JSON object.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrStorage means the submission could not be written.
	ErrStorage = errors.New("storage error")
)

type field struct {
	key   string
	raw   json.RawMessage
	value any
}

// Payload is a decoded JSON object that remembers key order and the exact
// encoding of each value.
type Payload struct {
	fields []field
	index  map[string]int
}

// DecodePayload parses body as a non-empty JSON object. A repeated key keeps
// its first position and takes the last value.
func DecodePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Payload{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidPayload)
	}

	p := Payload{index: make(map[string]int)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		value, err := decodeValue(raw)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		p.set(key, raw, value)
	}

	if _, err := dec.Token(); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("%w: trailing data after object", ErrInvalidPayload)
	}
	if len(p.fields) == 0 {
		return Payload{}, fmt.Errorf("%w: no fields", ErrInvalidPayload)
	}

	return p, nil
}

// NewPayload builds a payload from ordered key/value pairs. Values must be
// JSON-encodable. Intended for tests and internal callers.
func NewPayload(pairs ...any) (Payload, error) {
	if len(pairs)%2 != 0 {
		return Payload{}, errors.New("payload pairs must be key/value")
	}
	p := Payload{index: make(map[string]int)}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return Payload{}, fmt.Errorf("payload key %v is not a string", pairs[i])
		}
		raw, err := json.Marshal(pairs[i+1])
		if err != nil {
			return Payload{}, err
		}
		value, err := decodeValue(raw)
		if err != nil {
			return Payload{}, err
		}
		p.set(key, raw, value)
	}
	return p, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Payload) set(key string, raw json.RawMessage, value any) {
	if i, ok := p.index[key]; ok {
		p.fields[i].raw = raw
		p.fields[i].value = value
		return
	}
	p.index[key] = len(p.fields)
	p.fields = append(p.fields, field{key: key, raw: raw, value: value})
}

// Len returns the number of distinct keys.
func (p Payload) Len() int {
	return len(p.fields)
}

// Keys returns the keys in submission order.
func (p Payload) Keys() []string {
	keys := make([]string, len(p.fields))
	for i, f := range p.fields {
		keys[i] = f.key
	}
	return keys
}

// Get returns the decoded value for key. Numbers are json.Number.
func (p Payload) Get(key string) (any, bool) {
	i, ok := p.index[key]
	if !ok {
		return nil, false
	}
	return p.fields[i].value, true
}

// String returns the value for key as text. Strings and numbers qualify;
// whitespace-only strings, booleans, null and nested values do not.
func (p Payload) String(key string) (string, bool) {
	value, ok := p.Get(key)
	if !ok {
		return "", false
	}
	return asText(value)
}

// Object returns the nested object stored under key.
func (p Payload) Object(key string) (map[string]any, bool) {
	value, ok := p.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := value.(map[string]any)
	return obj, ok
}

// RawFormData encodes every key not starting with "_" as a JSON object, in
// submission order. Values keep their received encoding (number literals are
// not reformatted); only insignificant whitespace is dropped. A value holding
// invalid UTF-8 is re-encoded from its decoded form, with U+FFFD in place of
// the bad bytes.
func (p Payload) RawFormData() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range p.fields {
		if strings.HasPrefix(f.key, "_") {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if utf8.Valid(f.raw) {
			if err := json.Compact(&buf, f.raw); err != nil {
				return nil, err
			}
			continue
		}
		if err := reencode(&buf, f.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// reencode writes value as compact JSON. json.Number keeps its literal.
func reencode(buf *bytes.Buffer, value any) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(out.Bytes(), "\n"))
	return nil
}

// asText converts a decoded value to text. NUL bytes are dropped because
// Postgres text columns cannot store them.
func asText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		v = strings.ReplaceAll(v, "\x00", "")
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
