package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedOutput is returned when a model response does not contain a
// decodable JSON object.
var ErrMalformedOutput = errors.New("malformed llm output")

// ErrFieldDrift is returned when the object decoded but some field had an
// unexpected JSON type. The target holds everything else and is usable.
var ErrFieldDrift = errors.New("llm output field type drift")

var fenceRe = regexp.MustCompile("```(?:json)?")

// ExtractObject pulls the JSON object out of a model response. Code fences are
// removed, then the text between the first '{' and the last '}' is taken.
// Nested prose containing braces is not handled; this is first/last, not a
// balanced scan.
func ExtractObject(text string) ([]byte, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < 0 || end < start {
		return nil, fmt.Errorf("%w: no json object found", ErrMalformedOutput)
	}
	obj := []byte(cleaned[start : end+1])
	if !json.Valid(obj) {
		return nil, fmt.Errorf("%w: invalid json object", ErrMalformedOutput)
	}
	return obj, nil
}

// DecodeObject extracts the JSON object from text and decodes it into v.
// Only a missing or invalid object is ErrMalformedOutput. A field whose type
// does not match v is skipped and reported as ErrFieldDrift after the rest of
// the object has been decoded.
func DecodeObject(text string, v any) error {
	obj, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, v); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return fmt.Errorf("%w: %v", ErrFieldDrift, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with two-space indentation. Used for
// checkpoint files so non-ASCII text stays readable.
func MarshalNoEscapeIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
