package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agent-backplane/abp/dialect"
)

func TestValidateToolSchemaAcceptsMatchingInput(t *testing.T) {
	schemaDoc := []byte(`{
		"type": "object",
		"properties": {"path": {"type": "string"}},
		"required": ["path"]
	}`)
	input := []byte(`{"path": "src/main.rs"}`)

	err := dialect.ValidateToolSchema(schemaDoc, input)
	assert.NoError(t, err)
}

func TestValidateToolSchemaRejectsMissingRequiredField(t *testing.T) {
	schemaDoc := []byte(`{
		"type": "object",
		"properties": {"path": {"type": "string"}},
		"required": ["path"]
	}`)
	input := []byte(`{}`)

	err := dialect.ValidateToolSchema(schemaDoc, input)
	assert.Error(t, err)
}

func TestValidateToolSchemaRejectsWrongType(t *testing.T) {
	schemaDoc := []byte(`{
		"type": "object",
		"properties": {"count": {"type": "integer"}}
	}`)
	input := []byte(`{"count": "not a number"}`)

	err := dialect.ValidateToolSchema(schemaDoc, input)
	assert.Error(t, err)
}

func TestValidateToolSchemaRejectsMalformedInput(t *testing.T) {
	schemaDoc := []byte(`{"type": "object"}`)
	err := dialect.ValidateToolSchema(schemaDoc, []byte(`not json`))
	assert.Error(t, err)
}
