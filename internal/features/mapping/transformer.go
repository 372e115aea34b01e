package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-portal-sync/internal/common/errs"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d+$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// Transformer applies a mapping table to source records.
type Transformer struct {
	table Table
	now   func() time.Time
}

func NewTransformer(table Table) *Transformer {
	return &Transformer{table: table, now: time.Now}
}

// WithClock replaces the clock used for time-derived computed fields.
func (t *Transformer) WithClock(now func() time.Time) *Transformer {
	t.now = now
	return t
}

// Has reports whether mappingType is defined.
func (t *Transformer) Has(mappingType string) bool {
	_, ok := t.table[mappingType]
	return ok
}

// Transform maps one source record. Validation problems are reported on the
// result; the error is reserved for an unknown mapping type or a failing
// expression.
func (t *Transformer) Transform(record map[string]any, mappingType string) (*TransformationResult, error) {
	fm, ok := t.table[mappingType]
	if !ok {
		return nil, errs.Errorf(errs.KindConfiguration, "mapping.transform", "unknown mapping type %q", mappingType)
	}

	result := &TransformationResult{
		Data:             make(map[string]any),
		IsValid:          true,
		ValidationErrors: []string{},
	}

	for _, source := range fm.sourceFields {
		rule := fm.FieldMappings[source]
		value := getNestedValue(record, source)
		if rule.Required && isEmpty(value) {
			result.addError(requiredMessage(rule.DestinationField))
			continue
		}
		value = applyTransform(value, rule.Transform)
		if !isEmpty(value) {
			setNestedValue(result.Data, rule.DestinationField, value)
		}
	}

	for _, dest := range fm.defaultFields {
		if isEmpty(getNestedValue(result.Data, dest)) {
			setNestedValue(result.Data, dest, fm.DefaultValues[dest])
		}
	}

	now := t.now().UTC()
	for _, dest := range fm.computedFields {
		value, err := computeField(fm.ComputedFields[dest], result.Data, now)
		if err != nil {
			return nil, errs.E(errs.KindInternal, "mapping.transform", fmt.Errorf("computed field %q: %w", dest, err))
		}
		if !isEmpty(value) {
			setNestedValue(result.Data, dest, value)
		}
	}

	if fm.ValidationRules != nil {
		validate(result, fm.ValidationRules)
	}

	return result, nil
}

func computeField(cf ComputedField, data map[string]any, now time.Time) (any, error) {
	switch cf.Type {
	case ComputedCurrentTimestamp:
		return now.Format(time.RFC3339), nil
	case ComputedCurrentDate:
		return now.Format(time.DateOnly), nil
	case ComputedCopyField:
		return getNestedValue(data, cf.Field), nil
	case ComputedExpression:
		return evalExpression(cf, data)
	}
	// unrecognized kinds derive nothing
	return nil, nil
}

func evalExpression(cf ComputedField, data map[string]any) (any, error) {
	if cf.compiled == nil {
		return nil, fmt.Errorf("expression was not compiled")
	}

	compiled := cf.compiled.Clone()
	if err := compiled.Set("record", data); err != nil {
		return nil, err
	}
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("failed to run expression: %w", err)
	}
	return compiled.Get(expressionVar).Value(), nil
}

func validate(result *TransformationResult, rules *ValidationRules) {
	for _, field := range rules.RequiredFields {
		if isEmpty(getNestedValue(result.Data, field)) {
			result.addError(requiredMessage(field))
		}
	}

	for _, field := range rules.EmailFields {
		value := getNestedValue(result.Data, field)
		if isEmpty(value) {
			continue
		}
		if !emailPattern.MatchString(toString(value)) {
			result.addError(fmt.Sprintf("invalid email format for %q: %v", field, value))
		}
	}

	for _, field := range rules.PhoneFields {
		value := getNestedValue(result.Data, field)
		if isEmpty(value) {
			continue
		}
		if !phonePattern.MatchString(phoneStrip.Replace(toString(value))) {
			result.addError(fmt.Sprintf("invalid phone format for %q: %v", field, value))
		}
	}
}

func requiredMessage(field string) string {
	return fmt.Sprintf("required field %q is missing", field)
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func applyTransform(value any, kind TransformKind) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	switch kind {
	case TransformUppercase:
		return strings.ToUpper(s)
	case TransformLowercase:
		return strings.ToLower(s)
	case TransformTrim:
		return strings.TrimSpace(s)
	}
	return value
}

// getNestedValue reads a dot path, e.g. "account.name" or "tags.0".
func getNestedValue(data map[string]any, path string) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			current = v[part]
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			current = v[idx]
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

// setNestedValue writes a dot path, creating intermediate objects.
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	}
	return fmt.Sprint(v)
}
