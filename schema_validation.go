package hostlink

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/machinefabric/hostlink-go/wire"
)

// SchemaValidationError represents errors that occur during request payload
// schema validation
type SchemaValidationError struct {
	Type    string      `json:"type"`
	Kind    string      `json:"kind,omitempty"`
	Details string      `json:"details"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *SchemaValidationError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("Schema validation failed for request kind '%s': %s", e.Kind, e.Details)
	}
	return fmt.Sprintf("Schema validation failed: %s", e.Details)
}

// SchemaValidator checks request payloads against per-kind JSON Schema
// Draft-7 documents before they are encoded onto the wire. Kinds with no
// registered schema pass unchecked.
type SchemaValidator struct {
	mu      sync.RWMutex
	schemas map[wire.Kind]*gojsonschema.Schema
}

// NewSchemaValidator creates an empty validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas: make(map[wire.Kind]*gojsonschema.Schema),
	}
}

// RegisterSchema compiles schemaJSON and attaches it to the given request
// kind, replacing any schema registered earlier.
func (sv *SchemaValidator) RegisterSchema(kind wire.Kind, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return &SchemaValidationError{
			Type:    "SchemaCompileFailed",
			Kind:    string(kind),
			Details: err.Error(),
		}
	}
	sv.mu.Lock()
	sv.schemas[kind] = schema
	sv.mu.Unlock()
	return nil
}

// ValidatePayload validates a request payload against the schema registered
// for its kind. Payload field names follow the json tags of the payload
// struct.
func (sv *SchemaValidator) ValidatePayload(kind wire.Kind, payload interface{}) error {
	sv.mu.RLock()
	schema := sv.schemas[kind]
	sv.mu.RUnlock()

	if schema == nil || payload == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return &SchemaValidationError{
			Type:    "ValidationFailed",
			Kind:    string(kind),
			Details: err.Error(),
			Value:   payload,
		}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &SchemaValidationError{
			Type:    "SchemaViolation",
			Kind:    string(kind),
			Details: strings.Join(details, "; "),
			Value:   payload,
		}
	}

	return nil
}
