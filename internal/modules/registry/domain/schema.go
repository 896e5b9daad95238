package domain

import "fmt"

type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyNumber  PropertyType = "number"
	PropertyBoolean PropertyType = "boolean"
	PropertyObject  PropertyType = "object"
	PropertyArray   PropertyType = "array"
)

type PropertySpec struct {
	Type     PropertyType `json:"type" yaml:"type"`
	Required bool         `json:"required,omitempty" yaml:"required,omitempty"`
}

// ConfigSchema declares the shape a plugin's config must take. A nil schema
// accepts any config.
type ConfigSchema map[string]PropertySpec

func (s ConfigSchema) Validate() error {
	for name, spec := range s {
		if name == "" {
			return fmt.Errorf("config schema property name must not be empty")
		}
		switch spec.Type {
		case PropertyString, PropertyNumber, PropertyBoolean, PropertyObject, PropertyArray:
		default:
			return fmt.Errorf("config schema property %q has unknown type: %s", name, spec.Type)
		}
	}
	return nil
}

// ValidateConfig checks a config value wholesale against the schema: required
// properties must be present, declared properties must match their type, and
// undeclared properties are rejected.
func (s ConfigSchema) ValidateConfig(config map[string]any) error {
	if s == nil {
		return nil
	}
	for name, spec := range s {
		value, ok := config[name]
		if !ok {
			if spec.Required {
				return fmt.Errorf("config property %q is required", name)
			}
			continue
		}
		if !spec.Type.matches(value) {
			return fmt.Errorf("config property %q must be of type %s", name, spec.Type)
		}
	}
	for name := range config {
		if _, ok := s[name]; !ok {
			return fmt.Errorf("config property %q is not declared in the schema", name)
		}
	}
	return nil
}

func (t PropertyType) matches(value any) bool {
	switch t {
	case PropertyString:
		_, ok := value.(string)
		return ok
	case PropertyNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case PropertyBoolean:
		_, ok := value.(bool)
		return ok
	case PropertyObject:
		_, ok := value.(map[string]any)
		return ok
	case PropertyArray:
		_, ok := value.([]any)
		return ok
	default:
		return false
	}
}
