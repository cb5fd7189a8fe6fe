package v1

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"
)

const schemaResource = "schema.json"

//go:embed schema.json
var rawSchema []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(rawSchema))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaResource)
})

// JSONSchema returns the JSON schema of the configuration document.
func JSONSchema() []byte {
	return bytes.Clone(rawSchema)
}

// ValidateSchema checks the structure of a YAML or JSON configuration document.
func ValidateSchema(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compiling configuration schema failed: %w", err)
	}
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("decoding configuration failed: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding configuration failed: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("configuration does not match schema: %w", err)
	}
	return nil
}
