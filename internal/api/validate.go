package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Session wire responses are validated against JSON Schemas before any field
// is read, so a malformed backend answer fails in one place with a clear
// error instead of surfacing as zero values downstream.
var wireSchemas = map[string]map[string]any{
	"session-start": {
		"type":     "object",
		"required": []any{"session_id"},
		"properties": map[string]any{
			"session_id": map[string]any{"type": "string", "minLength": 1},
			"reply":      map[string]any{"type": "string"},
			"text_reply": map[string]any{"type": "string"},
			"message":    map[string]any{"type": "string"},
			"questions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"audio_url": map[string]any{"type": "string"},
		},
	},
	"session-turn": {
		"type":     "object",
		"required": []any{"reply"},
		"properties": map[string]any{
			"reply":          map[string]any{"type": "string"},
			"passed":         map[string]any{"type": "boolean"},
			"question_text":  map[string]any{"type": "string"},
			"student_answer": map[string]any{"type": "string"},
			"correct_answer": map[string]any{"type": "string"},
			"evaluation":     map[string]any{"type": "string"},
		},
	},
}

var compiledSchemas sync.Map // map[string]*jsonschema.Schema

func validateResponse(name string, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &DecodeError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compiledSchema(name)
	if err != nil {
		return &DecodeError{Err: fmt.Errorf("compile schema %q: %w", name, err)}
	}
	if err := compiled.Validate(parsed); err != nil {
		return &DecodeError{Err: fmt.Errorf("response failed %q schema: %w", name, err)}
	}
	return nil
}

func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := compiledSchemas.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	def, ok := wireSchemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	// The compiler wants a parsed JSON value; round-trip the definition to
	// strip Go-specific types.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	compiledSchemas.Store(name, compiled)
	return compiled, nil
}
