package automation

import (
	"encoding/json"
	"strings"

	"github.com/courierhq/courier/internal/models"
)

// FallbackReply is returned when no extractor matches the backend payload.
const FallbackReply = "Received your message!"

// extractor is one reply-extraction strategy. The ordered list below is a
// contract with backend integrators: first match wins, and the order must
// not change.
type extractor struct {
	name string
	fn   func(raw json.RawMessage) (string, bool)
}

var extractors = []extractor{
	{name: "by-key:output", fn: byKey("output")},
	{name: "by-key:myField", fn: byKey("myField")},
	{name: "raw-string", fn: rawString},
	{name: "by-key:message", fn: byKey("message")},
}

// Normalize derives the single reply text from an untyped webhook payload
// by evaluating the extractors in fixed precedence, falling back to
// FallbackReply when nothing matches. A body that is not JSON at all is the
// reply text itself: a plain-text webhook response is the whole payload
// presenting as a string, the same shape the raw-string rule covers.
func Normalize(raw json.RawMessage) *models.NormalizedReply {
	if !json.Valid(raw) {
		if text := strings.TrimSpace(string(raw)); text != "" {
			return &models.NormalizedReply{Text: text}
		}
		return &models.NormalizedReply{Text: FallbackReply}
	}
	for _, ex := range extractors {
		if text, ok := ex.fn(raw); ok {
			return &models.NormalizedReply{Text: text}
		}
	}
	return &models.NormalizedReply{Text: FallbackReply}
}

// byKey matches an object payload with a non-empty string under the key.
func byKey(key string) func(json.RawMessage) (string, bool) {
	return func(raw json.RawMessage) (string, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", false
		}
		val, exists := obj[key]
		if !exists {
			return "", false
		}
		var text string
		if err := json.Unmarshal(val, &text); err != nil {
			return "", false
		}
		if text == "" {
			return "", false
		}
		return text, true
	}
}

// rawString matches a payload that is itself a JSON string.
func rawString(raw json.RawMessage) (string, bool) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}
