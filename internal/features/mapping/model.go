package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/d5/tengo/v2"
)

// TransformKind is a per-field value conversion.
type TransformKind string

const (
	TransformNone      TransformKind = ""
	TransformIdentity  TransformKind = "none"
	TransformUppercase TransformKind = "uppercase"
	TransformLowercase TransformKind = "lowercase"
	TransformTrim      TransformKind = "trim"
)

func (k TransformKind) Valid() bool {
	switch k {
	case TransformNone, TransformIdentity, TransformUppercase, TransformLowercase, TransformTrim:
		return true
	}
	return false
}

// ComputedKind selects how a computed destination field is derived.
type ComputedKind string

const (
	ComputedCurrentTimestamp ComputedKind = "current_timestamp"
	ComputedCurrentDate      ComputedKind = "current_date"
	ComputedCopyField        ComputedKind = "copy_field"
	ComputedExpression       ComputedKind = "expression"
)

// FieldRule maps one source field onto the destination record.
type FieldRule struct {
	DestinationField string        `json:"destination_field"`
	Required         bool          `json:"required,omitempty"`
	Transform        TransformKind `json:"transform,omitempty"`
}

// ComputedField derives a destination value after mapping and defaults.
// In JSON it is either an object or a bare kind string ("current_timestamp").
type ComputedField struct {
	Type       ComputedKind `json:"type"`
	Field      string       `json:"field,omitempty"`
	Expression string       `json:"expression,omitempty"`

	compiled *tengo.Compiled
}

func (c *ComputedField) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		*c = ComputedField{Type: ComputedKind(kind)}
		return nil
	}

	type plain ComputedField
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("computed field: %w", err)
	}
	*c = ComputedField(p)
	return nil
}

type ValidationRules struct {
	RequiredFields []string `json:"required_fields,omitempty"`
	EmailFields    []string `json:"email_fields,omitempty"`
	PhoneFields    []string `json:"phone_fields,omitempty"`
}

// FieldMapping describes how one mapping type turns a source record into a
// destination record. It is read-only once loaded.
type FieldMapping struct {
	FieldMappings   map[string]FieldRule     `json:"field_mappings"`
	DefaultValues   map[string]any           `json:"default_values,omitempty"`
	ComputedFields  map[string]ComputedField `json:"computed_fields,omitempty"`
	ValidationRules *ValidationRules         `json:"validation_rules,omitempty"`

	sourceFields   []string
	computedFields []string
	defaultFields  []string
}

// Table holds every mapping type keyed by name.
type Table map[string]*FieldMapping

// TransformationResult is the outcome of transforming one record.
type TransformationResult struct {
	Data             map[string]any `json:"data"`
	IsValid          bool           `json:"isValid"`
	ValidationErrors []string       `json:"validationErrors"`
}

func (r *TransformationResult) addError(msg string) {
	for _, existing := range r.ValidationErrors {
		if existing == msg {
			return
		}
	}
	r.ValidationErrors = append(r.ValidationErrors, msg)
	r.IsValid = false
}
