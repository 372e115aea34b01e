package mapping

import (
	"strings"
	"testing"
	"time"

	"go-portal-sync/internal/common/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 9, 15, 8, 30, 0, 0, time.UTC)

func mustLoad(t *testing.T, doc string) *Transformer {
	t.Helper()
	table, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	return NewTransformer(table).WithClock(func() time.Time { return testNow })
}

const membersDoc = `{
  "members": {
    "field_mappings": {
      "id": {"destination_field": "source_id", "required": true},
      "first_name": {"destination_field": "first_name", "required": true, "transform": "trim"},
      "email": {"destination_field": "email", "transform": "lowercase"},
      "phone": {"destination_field": "phone"},
      "code": {"destination_field": "code", "transform": "uppercase"},
      "account.name": {"destination_field": "organization.name"},
      "member_status": {"destination_field": "status"}
    },
    "default_values": {"status": "Active"},
    "computed_fields": {
      "synced_at": "current_timestamp",
      "synced_on": {"type": "current_date"},
      "contact": {"type": "copy_field", "field": "email"},
      "mystery": {"type": "crystal_ball"}
    },
    "validation_rules": {"required_fields": ["source_id", "first_name"]}
  }
}`

func TestTransformMapsAndComputes(t *testing.T) {
	tr := mustLoad(t, membersDoc)

	result, err := tr.Transform(map[string]any{
		"id":         "m-1",
		"first_name": "  Ada ",
		"email":      "ADA@Example.com",
		"phone":      "+1 (555) 010-2000",
		"code":       "ab12",
		"account":    map[string]any{"name": "Analytical Engines"},
		"ignored":    "x",
	}, "members")
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.ValidationErrors)
	assert.Equal(t, "m-1", result.Data["source_id"])
	assert.Equal(t, "Ada", result.Data["first_name"])
	assert.Equal(t, "ada@example.com", result.Data["email"])
	assert.Equal(t, "AB12", result.Data["code"])
	assert.Equal(t, map[string]any{"name": "Analytical Engines"}, result.Data["organization"])
	assert.Equal(t, "2025-09-15T08:30:00Z", result.Data["synced_at"])
	assert.Equal(t, "2025-09-15", result.Data["synced_on"])
	assert.Equal(t, "ada@example.com", result.Data["contact"])
	assert.NotContains(t, result.Data, "mystery")
	assert.NotContains(t, result.Data, "ignored")
}

func TestTransformRequiredFieldMissing(t *testing.T) {
	tr := mustLoad(t, membersDoc)

	result, err := tr.Transform(map[string]any{"id": "m-1", "first_name": "   "}, "members")
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{`required field "first_name" is missing`}, result.ValidationErrors)
	assert.NotContains(t, result.Data, "first_name")
}

func TestTransformDefaultOnlyWhenUnset(t *testing.T) {
	tr := mustLoad(t, membersDoc)

	result, err := tr.Transform(map[string]any{"id": "m-1", "first_name": "Ada"}, "members")
	require.NoError(t, err)
	assert.Equal(t, "Active", result.Data["status"])

	result, err = tr.Transform(map[string]any{"id": "m-1", "first_name": "Ada", "member_status": "Lapsed"}, "members")
	require.NoError(t, err)
	assert.Equal(t, "Lapsed", result.Data["status"])
}

func TestTransformEmailValidation(t *testing.T) {
	tr := mustLoad(t, membersDoc)

	result, err := tr.Transform(map[string]any{"id": "m-1", "first_name": "Ada", "email": "a@b.com"}, "members")
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	result, err = tr.Transform(map[string]any{"id": "m-1", "first_name": "Ada", "email": "not-an-email"}, "members")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.ValidationErrors, 1)
	assert.Contains(t, result.ValidationErrors[0], "email")
}

func TestTransformPhoneValidation(t *testing.T) {
	tr := mustLoad(t, membersDoc)

	for phone, valid := range map[string]bool{
		"+44 20 7946-0000": true,
		"(555) 010-2000":   true,
		"555-CALL-NOW":     false,
		"++1234":           false,
	} {
		result, err := tr.Transform(map[string]any{"id": "m-1", "first_name": "Ada", "phone": phone}, "members")
		require.NoError(t, err)
		assert.Equal(t, valid, result.IsValid, phone)
	}
}

func TestTransformUnknownMappingType(t *testing.T) {
	tr := mustLoad(t, membersDoc)

	_, err := tr.Transform(map[string]any{}, "nope")
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestTransformExpression(t *testing.T) {
	tr := mustLoad(t, `{
	  "people": {
	    "field_mappings": {
	      "first": {"destination_field": "first"},
	      "last": {"destination_field": "last"},
	      "age": {"destination_field": "age"}
	    },
	    "computed_fields": {
	      "full_name": {"type": "expression", "expression": "text.to_upper(record.first) + \" \" + record.last"},
	      "broken": {"type": "expression", "expression": "is_undefined(record.age) ? undefined : record.age + \"x\""}
	    }
	  }
	}`)

	result, err := tr.Transform(map[string]any{"first": "grace", "last": "Hopper"}, "people")
	require.NoError(t, err)
	assert.Equal(t, "GRACE Hopper", result.Data["full_name"])
	assert.NotContains(t, result.Data, "broken")

	_, err = tr.Transform(map[string]any{"first": "grace", "last": "Hopper", "age": 85}, "people")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown transform", `{"m": {"field_mappings": {"a": {"destination_field": "a", "transform": "reverse"}}}}`},
		{"empty destination", `{"m": {"field_mappings": {"a": {"destination_field": " "}}}}`},
		{"bad expression", `{"m": {"field_mappings": {}, "computed_fields": {"x": {"type": "expression", "expression": "1 +"}}}}`},
		{"copy without field", `{"m": {"field_mappings": {}, "computed_fields": {"x": {"type": "copy_field"}}}}`},
		{"no types", `{}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.KindConfiguration))
		})
	}
}

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"source_to_portal_events",
		"source_to_portal_members",
		"source_to_portal_organizations",
	}, table.Types())

	tr := NewTransformer(table).WithClock(func() time.Time { return testNow })
	result, err := tr.Transform(map[string]any{
		"id":         "b4a1f9a2-4a52-4c55-9a4e-2f5a1d1d9e01",
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	}, "source_to_portal_members")
	require.NoError(t, err)
	assert.True(t, result.IsValid, result.ValidationErrors)
	assert.Equal(t, "Ada Lovelace", result.Data["display_name"])
	assert.Equal(t, "Active", result.Data["status"])
}
