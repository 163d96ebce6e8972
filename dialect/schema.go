package dialect

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agent-backplane/abp/abperrors"
)

// ValidateToolSchema checks a tool's input against its declared JSON
// Schema parameters, rejecting malformed input before it reaches a
// backend that might otherwise crash on it.
func ValidateToolSchema(schemaDoc []byte, input []byte) error {
	compiler := jsonschema.NewCompiler()

	schemaResource, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
	if err != nil {
		return abperrors.Wrap(abperrors.IRInvalid, "parse tool schema", err)
	}
	const resourceURL = "abp://tool-schema.json"
	if err := compiler.AddResource(resourceURL, schemaResource); err != nil {
		return abperrors.Wrap(abperrors.IRInvalid, "load tool schema", err)
	}

	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return abperrors.Wrap(abperrors.IRInvalid, "compile tool schema", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(input))
	if err != nil {
		return abperrors.Wrap(abperrors.IRInvalid, "parse tool input", err)
	}

	if err := compiled.Validate(instance); err != nil {
		return abperrors.Wrap(abperrors.IRInvalid, fmt.Sprintf("tool input failed schema validation: %v", err), err)
	}
	return nil
}
