package embedding

import (
	"encoding/json"
	"strings"
)

// ValidationError reports a malformed input. It is raised before any model
// lookup or encode call, and maps to the client-fault error envelope on both
// API surfaces.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Input is the "input" field of an embedding request: a single JSON string or
// an array of strings.
type Input struct {
	texts  []string
	isList bool
}

// UnmarshalJSON accepts a string or an array of strings. Any other shape,
// including an array with a non-string element, is a validation failure.
func (in *Input) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		in.texts = []string{s}
		in.isList = false
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return &ValidationError{Message: "input must be a string or a list of strings"}
	}

	texts := make([]string, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &texts[i]); err != nil {
			return &ValidationError{Message: "All items in input list must be strings"}
		}
	}
	in.texts = texts
	in.isList = true
	return nil
}

// Normalize returns the input as an ordered list of non-empty strings, or a
// ValidationError naming the distinct rejection reason.
func (in *Input) Normalize() ([]string, error) {
	if !in.isList {
		if len(in.texts) == 0 || strings.TrimSpace(in.texts[0]) == "" {
			return nil, &ValidationError{Message: "Input string cannot be empty"}
		}
		return in.texts, nil
	}
	if len(in.texts) == 0 {
		return nil, &ValidationError{Message: "Input list cannot be empty"}
	}
	for _, t := range in.texts {
		if strings.TrimSpace(t) == "" {
			return nil, &ValidationError{Message: "Input list cannot contain empty strings"}
		}
	}
	return in.texts, nil
}

// Len returns the number of input items before validation. Used for request logging.
func (in *Input) Len() int {
	return len(in.texts)
}
