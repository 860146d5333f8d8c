package analyzer

import (
	"encoding/json"
	"strings"
)

// ParseError marks model output that was not valid JSON after
// fence-stripping. The orchestrator uses the distinguished type to
// attribute the failure to the model rather than to infrastructure.
type ParseError struct {
	cause error
}

func (e *ParseError) Error() string {
	return "model response was not valid JSON: " + e.cause.Error()
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

// ParseResponse deserializes the model's raw text into a generic record.
// Surrounding whitespace is trimmed and a triple-backtick fence (with an
// optional language tag) is stripped before decoding. The contract is
// strict: no repair of truncated JSON and no extraction of JSON substrings
// from surrounding prose.
func ParseResponse(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 2 {
			text = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, &ParseError{cause: err}
	}
	return record, nil
}
