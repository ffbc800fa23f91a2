package schema

import (
	"encoding/json"

	"github.com/Cstannahill/farm-framework/errors"
	"gopkg.in/yaml.v3"
)

// Parse decodes a JSON schema payload and validates its marker fields.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrSchemaInvalid, err.Error())
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseYAML decodes a YAML schema payload (a pre-exported openapi.yaml).
// The YAML tree is round-tripped through JSON so the same struct tags apply.
func ParseYAML(data []byte) (*Document, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrSchemaInvalid, err.Error())
	}
	jsonBytes, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, errors.Wrap(errors.ErrSchemaInvalid, err.Error())
	}
	return Parse(jsonBytes)
}

// Validate checks the required top-level marker fields. A payload without
// them is not an extracted schema, whatever else it contains.
func (d *Document) Validate() error {
	if d.OpenAPI == "" {
		return errors.Wrap(errors.ErrSchemaInvalid, "missing top-level openapi field")
	}
	if d.Paths == nil {
		return errors.Wrap(errors.ErrSchemaInvalid, "missing top-level paths field")
	}
	return nil
}

// normalizeYAML rewrites non-string map keys so the tree survives
// json.Marshal. yaml.v3 produces map[string]interface{} for string-keyed
// mappings; numeric keys (e.g. response status codes written bare) arrive as
// map[interface{}]interface{} in nested documents.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[k] = normalizeYAML(inner)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[toString(k)] = normalizeYAML(inner)
		}
		return out
	case []interface{}:
		for i, inner := range val {
			val[i] = normalizeYAML(inner)
		}
		return val
	default:
		return v
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}
