package hostlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/hostlink-go/wire"
)

const runProcessSchema = `{
	"type": "object",
	"properties": {
		"executable": {"type": "string", "minLength": 1},
		"arguments": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["executable"]
}`

func TestValidatePayloadAcceptsConformingRequest(t *testing.T) {
	sv := NewSchemaValidator()
	require.NoError(t, sv.RegisterSchema(wire.KindProcessRun, runProcessSchema))

	err := sv.ValidatePayload(wire.KindProcessRun, RunProcessRequest{
		Executable: "ls",
		Arguments:  []string{"-la"},
	})
	assert.NoError(t, err)
}

func TestValidatePayloadRejectsViolation(t *testing.T) {
	sv := NewSchemaValidator()
	require.NoError(t, sv.RegisterSchema(wire.KindProcessRun, runProcessSchema))

	err := sv.ValidatePayload(wire.KindProcessRun, RunProcessRequest{Executable: ""})
	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "SchemaViolation", schemaErr.Type)
	assert.Equal(t, string(wire.KindProcessRun), schemaErr.Kind)
	assert.Contains(t, schemaErr.Error(), "process.run")
}

func TestValidatePayloadSkipsUnregisteredKinds(t *testing.T) {
	sv := NewSchemaValidator()
	assert.NoError(t, sv.ValidatePayload(wire.KindFileRead, filePathRequest{Path: "/x"}))
}

func TestValidatePayloadSkipsNilPayload(t *testing.T) {
	sv := NewSchemaValidator()
	require.NoError(t, sv.RegisterSchema(wire.KindProcessRun, runProcessSchema))
	assert.NoError(t, sv.ValidatePayload(wire.KindProcessRun, nil))
}

func TestRegisterSchemaRejectsBadDocument(t *testing.T) {
	sv := NewSchemaValidator()
	err := sv.RegisterSchema(wire.KindProcessRun, `{"type": ["not", 1, "valid"`)
	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "SchemaCompileFailed", schemaErr.Type)
}

func TestRegisterSchemaReplacesEarlier(t *testing.T) {
	sv := NewSchemaValidator()
	require.NoError(t, sv.RegisterSchema(wire.KindProcessRun, `{"type": "object"}`))
	require.NoError(t, sv.RegisterSchema(wire.KindProcessRun, runProcessSchema))

	err := sv.ValidatePayload(wire.KindProcessRun, RunProcessRequest{Executable: ""})
	assert.Error(t, err)
}
