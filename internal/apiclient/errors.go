package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var messageKeys = []string{"message", "msg", "error"}

// extractMessage picks a human readable message out of an error body. In
// order: a plain string body, then the first of message/msg/error. When that
// field is an object its first member is used. Anything else falls back to
// the body as JSON text.
func extractMessage(res *response) string {
	fallback := fmt.Sprintf("Request failed: %d", res.status)

	if !res.isJSON {
		if s, _ := res.data.(string); s != "" {
			return s
		}
		return fallback
	}
	if falsy(res.data) {
		return fallback
	}
	if s, ok := res.data.(string); ok {
		return s
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(res.raw, &fields); err != nil {
		return compact(res.raw, fallback)
	}

	var msg json.RawMessage
	for _, k := range messageKeys {
		if v, ok := fields[k]; ok && !isNull(v) {
			msg = v
			break
		}
	}
	if msg == nil {
		return compact(res.raw, fallback)
	}

	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}

	switch firstByte(msg) {
	case '{', '[':
		v, ok := firstMember(msg)
		if !ok {
			return compact(msg, fallback)
		}
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		return compact(v, fallback)
	default:
		return compact(res.raw, fallback)
	}
}

// firstMember returns the first value of a JSON object or array, keeping
// document order.
func firstMember(raw json.RawMessage) (json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	open, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if !dec.More() {
		return nil, false
	}
	if open == json.Delim('{') {
		if _, err := dec.Token(); err != nil {
			return nil, false
		}
	}
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func compact(raw []byte, fallback string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return fallback
	}
	return buf.String()
}

// falsy reports an absent, empty string, zero or false body.
func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func firstByte(raw json.RawMessage) byte {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return 0
	}
	return t[0]
}
