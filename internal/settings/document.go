package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nerrad567/rza-core/internal/apperr"
	"github.com/nerrad567/rza-core/internal/infrastructure/config"
)

//go:embed schema/document.json.tmpl
var documentSchemaTemplate string

const documentSchemaURL = "rza-document.json"

// DocumentValidator checks payload and settings documents against the
// configured size limits.
type DocumentValidator struct {
	schema   *jsonschema.Schema
	maxDepth int
}

// NewDocumentValidator compiles the document schema for limits.
func NewDocumentValidator(limits config.DocumentsConfig) (*DocumentValidator, error) {
	tmpl, err := template.New("document").Parse(documentSchemaTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing document schema template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, limits); err != nil {
		return nil, fmt.Errorf("rendering document schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(documentSchemaURL, &buf); err != nil {
		return nil, fmt.Errorf("adding document schema resource: %w", err)
	}
	schema, err := compiler.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling document schema: %w", err)
	}

	return &DocumentValidator{schema: schema, maxDepth: limits.MaxDepth}, nil
}

// Validate returns a validation error naming field when doc breaks a limit.
// A nil document is valid and stored as an empty object.
func (v *DocumentValidator) Validate(field string, doc map[string]any) error {
	if doc == nil {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return apperr.Validation("%s is not valid JSON: %v", field, err)
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return apperr.Validation("%s is not valid JSON: %v", field, err)
	}

	if depth := nestingDepth(value); depth > v.maxDepth {
		return apperr.Validation("%s exceeds maximum nesting depth of %d", field, v.maxDepth)
	}

	if err := v.schema.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return apperr.Validation("%s exceeds document limits: %s", field, leafMessage(ve))
		}
		return apperr.Validation("%s exceeds document limits: %v", field, err)
	}
	return nil
}

// nestingDepth counts nested objects and arrays; a flat object has depth 1.
func nestingDepth(v any) int {
	switch val := v.(type) {
	case map[string]any:
		deepest := 0
		for _, child := range val {
			deepest = max(deepest, nestingDepth(child))
		}
		return deepest + 1
	case []any:
		deepest := 0
		for _, child := range val {
			deepest = max(deepest, nestingDepth(child))
		}
		return deepest + 1
	default:
		return 0
	}
}

// leafMessage returns the most specific cause of a schema failure.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
