package formz

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Codec defines the deserialization contract for drafts delivered by a Watcher.
type Codec interface {
	// Unmarshal deserializes bytes into a value.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json.
type JSONCodec struct{}

// Unmarshal deserializes JSON bytes into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

// YAMLCodec implements Codec using gopkg.in/yaml.v3.
type YAMLCodec struct{}

// Unmarshal deserializes YAML bytes into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// AutoCodec detects JSON by its leading brace and treats everything else as YAML.
type AutoCodec struct{}

// Unmarshal deserializes JSON or YAML bytes into v.
func (AutoCodec) Unmarshal(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

// ContentType reports YAML, the superset format.
func (AutoCodec) ContentType() string {
	return "application/x-yaml"
}

var (
	_ Codec = JSONCodec{}
	_ Codec = YAMLCodec{}
	_ Codec = AutoCodec{}
)

// Draft is a partial Item. Nil fields are left untouched when the draft
// is applied to a form.
type Draft struct {
	ID           *string `json:"id,omitempty" yaml:"id,omitempty"`
	Name         *string `json:"name,omitempty" yaml:"name,omitempty"`
	Description  *string `json:"description,omitempty" yaml:"description,omitempty"`
	Logo         *string `json:"logo,omitempty" yaml:"logo,omitempty"`
	DateRelease  *string `json:"date_release,omitempty" yaml:"date_release,omitempty"`
	DateRevision *string `json:"date_revision,omitempty" yaml:"date_revision,omitempty"`
}

// value returns the draft's value for key and whether it is set.
func (d Draft) value(key FieldKey) (string, bool) {
	var p *string
	switch key {
	case FieldID:
		p = d.ID
	case FieldName:
		p = d.Name
	case FieldDescription:
		p = d.Description
	case FieldLogo:
		p = d.Logo
	case FieldDateRelease:
		p = d.DateRelease
	case FieldDateRevision:
		p = d.DateRevision
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Empty reports whether the draft sets no field at all.
func (d Draft) Empty() bool {
	for _, key := range FieldKeys {
		if _, ok := d.value(key); ok {
			return false
		}
	}
	return true
}
