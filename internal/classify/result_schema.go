package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "classification_result.schema.json",
  "type": "object",
  "required": ["categories"],
  "properties": {
    "categories": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 1
    },
    "tags": {
      "type": "array",
      "items": {"type": "string"}
    },
    "confidence": {
      "type": "integer"
    },
    "reasoning": {
      "type": "string"
    }
  }
}`

type rawResult struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Confidence int      `json:"confidence"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// parseResultPayload validates a classifier JSON payload against the result
// schema and decodes it.
func parseResultPayload(payload []byte) (rawResult, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return rawResult{}, fmt.Errorf("decode classification JSON: %w", err)
	}

	schema, err := loadResultSchema()
	if err != nil {
		return rawResult{}, fmt.Errorf("load result schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return rawResult{}, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return rawResult{}, fmt.Errorf("normalize classification JSON: %w", err)
	}

	var result rawResult
	if err := json.Unmarshal(normalized, &result); err != nil {
		return rawResult{}, fmt.Errorf("unmarshal classification result: %w", err)
	}
	return result, nil
}

func loadResultSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("classification_result.schema.json", strings.NewReader(resultSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("classification_result.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
