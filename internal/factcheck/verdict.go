package factcheck

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// Verdict is the verification outcome of one claim.
type Verdict string

// Verdict constants
const (
	VerdictCorrect          Verdict = "correct"
	VerdictIncorrect        Verdict = "incorrect"
	VerdictPartiallyCorrect Verdict = "partially_correct"
	VerdictUnverified       Verdict = "unverified"
)

// Result pairs a claim with its verdict.
type Result struct {
	Claim       string   `json:"claim"`
	Context     string   `json:"context"`
	Priority    Priority `json:"priority"`
	Verdict     Verdict  `json:"verdict"`
	Confidence  int      `json:"confidence"`
	Correction  string   `json:"correction,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// VerdictResponse is one element of the verifier's JSON array.
type VerdictResponse struct {
	Verdict     Verdict `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Correction  string  `json:"correction"`
	SourceURL   string  `json:"source_url"`
	Explanation string  `json:"explanation"`
}

//go:embed verdict.schema.json
var verdictSchemaJSON []byte

var (
	verdictSchemaOnce sync.Once
	verdictSchema     *jsonschema.Schema
	verdictSchemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	verdictSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		verdictSchema, verdictSchemaErr = compiler.Compile(verdictSchemaJSON)
	})
	return verdictSchema, verdictSchemaErr
}

// ParseVerdicts finds the verdict array in a verifier response, validates
// it and checks it has exactly want elements. Prose around the array may
// contain brackets of its own, so every '[' is tried in order and the first
// candidate that decodes and validates wins.
func ParseVerdicts(raw string, want int) ([]VerdictResponse, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile verdict schema: %w", err)
	}

	lastErr := fmt.Errorf("no JSON array in verifier response")
	for offset := 0; offset < len(raw); {
		i := strings.IndexByte(raw[offset:], '[')
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + 1

		verdicts, err := decodeVerdicts(schema, raw[start:], want)
		if err != nil {
			lastErr = err
			continue
		}
		return verdicts, nil
	}
	return nil, lastErr
}

// decodeVerdicts decodes the first JSON value of s as a verdict array.
func decodeVerdicts(schema *jsonschema.Schema, s string, want int) ([]VerdictResponse, error) {
	var payload json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode verifier response: %w", err)
	}

	var instance interface{}
	if err := json.Unmarshal(payload, &instance); err != nil {
		return nil, fmt.Errorf("failed to decode verifier response: %w", err)
	}
	result := schema.Validate(instance)
	if !result.IsValid() {
		var msgs []string
		for field, evalErr := range result.Errors {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		return nil, fmt.Errorf("verifier response validation failed: %s", strings.Join(msgs, "; "))
	}

	var verdicts []VerdictResponse
	if err := json.Unmarshal(payload, &verdicts); err != nil {
		return nil, fmt.Errorf("failed to decode verdicts: %w", err)
	}
	if len(verdicts) != want {
		return nil, fmt.Errorf("expected %d verdicts, got %d", want, len(verdicts))
	}
	return verdicts, nil
}
