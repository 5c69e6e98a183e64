package searchindex

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://documenter-mcp.local/schema/search_index.json"

// Schema is the JSON schema of the {"docs": [...]} payload
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["docs"],
  "properties": {
    "docs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["location", "category"],
        "properties": {
          "location": {"type": "string"},
          "page": {"type": "string"},
          "title": {"type": "string"},
          "text": {"type": "string"},
          "category": {"enum": ["page", "section", "type", "method", "function"]}
        }
      }
    }
  }
}`

// SchemaError is one schema violation
type SchemaError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func compileSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
		if err != nil {
			compiledSchemaErr = fmt.Errorf("invalid built-in schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compiledSchemaErr = fmt.Errorf("failed to add schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// ValidateSchema checks the JSON payload of a search index file (JavaScript
// wrapper allowed) against Schema. A bare array is checked as the docs array.
// The error return is reserved for input that is not JSON at all.
func ValidateSchema(data []byte) ([]SchemaError, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	payload, offset, _, err := locatePayload(data)
	if err != nil {
		return nil, err
	}
	if payload[0] == '[' {
		wrapped := make([]byte, 0, len(payload)+10)
		wrapped = append(wrapped, `{"docs":`...)
		wrapped = append(wrapped, payload...)
		wrapped = append(wrapped, '}')
		payload = wrapped
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, &ParseError{Offset: offset, Record: -1, Err: fmt.Errorf("%w: %v", ErrMalformedIndex, err)}
	}

	if err := schema.Validate(instance); err != nil {
		validationErr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []SchemaError{{Path: "$", Message: err.Error()}}, nil
		}
		return flattenSchemaErrors(validationErr), nil
	}
	return nil, nil
}

// flattenSchemaErrors collects the leaf causes, which carry the precise locations
func flattenSchemaErrors(validationErr *jsonschema.ValidationError) []SchemaError {
	if len(validationErr.Causes) == 0 {
		path := "$"
		if len(validationErr.InstanceLocation) > 0 {
			path = "$." + strings.Join(validationErr.InstanceLocation, ".")
		}
		return []SchemaError{{Path: path, Message: validationErr.Error()}}
	}

	var errs []SchemaError
	for _, cause := range validationErr.Causes {
		errs = append(errs, flattenSchemaErrors(cause)...)
	}
	return errs
}
