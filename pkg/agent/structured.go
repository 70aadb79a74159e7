package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema compiles a JSON schema document for output validation.
// Schemas are package constants, so compilation failures are programmer
// errors; callers panic at construction time via mustCompileSchema.
func compileSchema(schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

func mustCompileSchema(schemaJSON string) *jsonschema.Schema {
	schema, err := compileSchema(schemaJSON)
	if err != nil {
		panic(err)
	}
	return schema
}

// parseStructured extracts and validates a JSON document from raw model
// output. Models wrap JSON in code fences or prose; both are tolerated.
func parseStructured(raw string, schema *jsonschema.Schema, out any) error {
	candidate := extractJSONCandidate(stripCodeFences(raw))
	if candidate == "" {
		return fmt.Errorf("no JSON document found in model output")
	}

	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if schema != nil {
		if err := schema.Validate(value); err != nil {
			return fmt.Errorf("model output does not match schema: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return fmt.Errorf("failed to decode model output: %w", err)
	}
	return nil
}

// stripCodeFences removes a surrounding markdown code fence, if any.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line.
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// extractJSONCandidate returns the first balanced JSON object or array in s.
func extractJSONCandidate(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// repairPrompt asks the model to fix output that failed schema validation.
func repairPrompt(schemaJSON string, parseErr error) string {
	return fmt.Sprintf(
		"Your previous response was not valid: %v\n\n"+
			"Respond again with ONLY a JSON document matching this schema, no prose and no code fences:\n%s",
		parseErr, schemaJSON)
}
