package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ModelFile is the YAML layout of a standalone models file.
type ModelFile struct {
	Models []Model `yaml:"models" validate:"dive"`
}

// Decode reads model definitions from YAML and validates them.
func Decode(r io.Reader) ([]Model, error) {
	var file ModelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("schema: malformed models yaml: %w", err)
	}
	if err := ValidateModels(file.Models); err != nil {
		return nil, err
	}
	return file.Models, nil
}

// LoadFile reads a models file from disk.
func LoadFile(path string) ([]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Decode(bytes.NewReader(data))
}

// ValidateModels runs the struct tag rules and Model.Check on each model.
func ValidateModels(models []Model) error {
	v := validator.New()
	for i := range models {
		if err := v.Struct(&models[i]); err != nil {
			return fmt.Errorf("schema: model #%d (%s.%s): %w", i, models[i].App, models[i].Name, err)
		}
		if err := models[i].Check(); err != nil {
			return err
		}
	}
	return nil
}
