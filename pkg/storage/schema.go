package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// collectionSchema is the shape every output file must have
const collectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "timestamp"],
    "properties": {
      "id": {"type": ["string", "integer"]},
      "timestamp": {"type": ["string", "number"]}
    }
  }
}`

var builtinSchema = mustCompile(gojsonschema.NewStringLoader(collectionSchema))

func mustCompile(loader gojsonschema.JSONLoader) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return schema
}

// ValidationError lists the schema violations of a document
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is a single violation at a JSON path
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "document does not match %s schema:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError reports a user schema that cannot be read or compiled
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// LoadSchema compiles the JSON Schema file at path
func LoadSchema(path string) (*gojsonschema.Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Cause: err}
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &SchemaLoadError{Path: absPath, Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: absPath, Cause: err}
	}
	return schema, nil
}

// validate checks an encoded document against schema
func validate(schema *gojsonschema.Schema, name string, document []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("validate against %s schema: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
