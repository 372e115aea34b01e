package mapping

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go-portal-sync/internal/common/errs"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

//go:embed field_mappings.json
var defaultMappings []byte

// expressionVar receives the result of an expression computed field.
const expressionVar = "computed"

const expressionPrelude = "text := import(\"text\")\ntimes := import(\"times\")\nmath := import(\"math\")\n"

// Default returns the mapping table bundled with the binary.
func Default() (Table, error) {
	return Load(bytes.NewReader(defaultMappings))
}

// LoadFile reads a mapping table from path, or the bundled table when path is empty.
func LoadFile(path string) (Table, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.KindConfiguration, "mapping.load", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a mapping document keyed by mapping type.
func Load(r io.Reader) (Table, error) {
	var table Table
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, errs.E(errs.KindConfiguration, "mapping.load", err)
	}
	if len(table) == 0 {
		return nil, errs.Errorf(errs.KindConfiguration, "mapping.load", "mapping document defines no mapping types")
	}

	for name, fm := range table {
		if fm == nil {
			return nil, errs.Errorf(errs.KindConfiguration, "mapping.load", "mapping type %q is empty", name)
		}
		if err := fm.prepare(); err != nil {
			return nil, errs.E(errs.KindConfiguration, "mapping.load", fmt.Errorf("%s: %w", name, err))
		}
	}
	return table, nil
}

// Types lists the mapping type names in order.
func (t Table) Types() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (fm *FieldMapping) prepare() error {
	for source, rule := range fm.FieldMappings {
		if strings.TrimSpace(source) == "" {
			return fmt.Errorf("empty source field")
		}
		if strings.TrimSpace(rule.DestinationField) == "" {
			return fmt.Errorf("field %q has no destination_field", source)
		}
		if !rule.Transform.Valid() {
			return fmt.Errorf("field %q has unknown transform %q", source, rule.Transform)
		}
	}

	for dest, cf := range fm.ComputedFields {
		switch cf.Type {
		case ComputedCopyField:
			if cf.Field == "" {
				return fmt.Errorf("computed field %q: copy_field needs a field", dest)
			}
		case ComputedExpression:
			compiled, err := compileExpression(cf.Expression)
			if err != nil {
				return fmt.Errorf("computed field %q: %w", dest, err)
			}
			cf.compiled = compiled
			fm.ComputedFields[dest] = cf
		}
	}

	if rules := fm.ValidationRules; rules != nil {
		if rules.EmailFields == nil {
			rules.EmailFields = []string{"email"}
		}
		if rules.PhoneFields == nil {
			rules.PhoneFields = []string{"phone"}
		}
	}

	fm.sourceFields = sortedKeys(fm.FieldMappings)
	fm.defaultFields = sortedKeys(fm.DefaultValues)
	fm.computedFields = sortedKeys(fm.ComputedFields)
	return nil
}

func compileExpression(expr string) (*tengo.Compiled, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("expression is empty")
	}

	script := tengo.NewScript([]byte(expressionPrelude + expressionVar + " := (" + expr + ")"))
	script.SetImports(stdlib.GetModuleMap("text", "times", "math"))
	if err := script.Add("record", map[string]any{}); err != nil {
		return nil, err
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}
	return compiled, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
