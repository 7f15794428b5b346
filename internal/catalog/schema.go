package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// bookSchema is the JSON Schema every manifest entry must satisfy.
// Entries that fail validation are skipped, not fatal, so one bad record
// cannot take the whole catalog down.
const bookSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["title", "author", "category", "filename", "encrypted", "original_size"],
	"properties": {
		"id": {"type": "string"},
		"title": {"type": "string", "minLength": 1},
		"author": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"filename": {"type": "string", "minLength": 1},
		"encrypted": {"type": "boolean"},
		"original_size": {"type": "integer", "minimum": 0},
		"cover_image": {"type": "string"},
		"page_count": {"type": "integer", "minimum": 0}
	}
}`

// Validator checks manifest entries against the book schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the book schema
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(bookSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile book schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns nil when the raw manifest entry conforms to the schema
func (v *Validator) Validate(raw json.RawMessage) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate entry: %w", err)
	}
	if !result.Valid() {
		if errs := result.Errors(); len(errs) > 0 {
			return fmt.Errorf("invalid catalog entry: %s", errs[0].String())
		}
		return fmt.Errorf("invalid catalog entry")
	}
	return nil
}
