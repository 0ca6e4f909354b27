package config

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalid reports configuration that fails schema or value checks.
var ErrInvalid = errors.New("invalid config")

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// ValidateSettings checks raw settings, as returned by viper, against the
// embedded schema. Violations are listed per field in sorted order.
func ValidateSettings(settings map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(settings))
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", schemaErr.Field(), schemaErr.Description()))
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: config schema validation failed: %s", ErrInvalid, strings.Join(problems, "; "))
}
