package sync

import (
	gosync "sync"
	"testing"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/features/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryResolvesAgainstBundledMappings(t *testing.T) {
	table, err := mapping.Default()
	require.NoError(t, err)

	r := DefaultRegistry()
	require.NoError(t, r.Validate(mapping.NewTransformer(table).Has))

	names := make([]string, 0)
	for _, p := range r.Pipelines() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"events", "members", "organizations"}, names)
}

func TestRegistryLookupUnknownTask(t *testing.T) {
	_, err := DefaultRegistry().Lookup("memebrs")
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		PipelineConfig{Name: "a", Module: "A", MappingType: "m"},
		PipelineConfig{Name: "a", Module: "B", MappingType: "m"},
	)
	assert.Error(t, err)

	_, err = NewRegistry(
		PipelineConfig{Name: "a", Module: "A", MappingType: "m"},
		PipelineConfig{Name: "b", Module: "A", MappingType: "m"},
	)
	assert.Error(t, err)

	_, err = NewRegistry(PipelineConfig{Name: "a", Module: "A"})
	assert.Error(t, err)
}

func TestWithDefaults(t *testing.T) {
	p := PipelineConfig{Name: "members", Related: []RelatedConfig{{Relation: "addresses"}}}.withDefaults(50)

	assert.Equal(t, "members", p.DestinationModule)
	assert.Equal(t, 50, p.PageSize)
	assert.Equal(t, "modified_on", p.OrderBy)
	assert.Equal(t, "asc", p.OrderDirection)
	assert.Equal(t, []string{"id"}, p.IdentifierFields)
	assert.Equal(t, "addresses", p.Related[0].TargetField)
	assert.Equal(t, 50, p.Related[0].PageSize)
}

func TestWithDefaultsLeavesRegistryUntouched(t *testing.T) {
	r := DefaultRegistry()

	var wg gosync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.Lookup("events")
			if !assert.NoError(t, err) {
				return
			}
			p = p.withDefaults(50)
			assert.Equal(t, 50, p.Related[0].PageSize)
		}()
	}
	wg.Wait()

	again, err := r.Lookup("events")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Related[0].PageSize)
	assert.Empty(t, again.Related[0].TargetField)
}
