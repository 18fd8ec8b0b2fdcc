package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "fcmcp://config.schema.json"

// ValidateFile checks a config file against the embedded schema. Malformed or
// out-of-schema files are rejected here, before viper ever sees them, so the
// error names the offending paths instead of surfacing as a missing-key panic
// somewhere downstream.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied config path
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return validateBytes(path, data)
}

func validateBytes(path string, data []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("parse embedded config schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return fmt.Errorf("register config schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("config %s is not valid JSON: %w", path, err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("config %s does not match schema: %w", path, err)
	}
	return nil
}
