package sync

import (
	"sort"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/connectors"
)

// Registry resolves task names to pipeline configurations.
type Registry struct {
	pipelines map[string]PipelineConfig
}

// NewRegistry indexes pipelines by name. Names and modules must be unique.
func NewRegistry(pipelines ...PipelineConfig) (*Registry, error) {
	r := &Registry{pipelines: make(map[string]PipelineConfig, len(pipelines))}
	modules := make(map[string]string)

	for _, p := range pipelines {
		switch {
		case p.Name == "":
			return nil, errs.Errorf(errs.KindConfiguration, "sync.registry", "pipeline without a name")
		case p.Module == "":
			return nil, errs.Errorf(errs.KindConfiguration, "sync.registry", "pipeline %q has no module", p.Name)
		case p.MappingType == "":
			return nil, errs.Errorf(errs.KindConfiguration, "sync.registry", "pipeline %q has no mapping type", p.Name)
		}
		if _, dup := r.pipelines[p.Name]; dup {
			return nil, errs.Errorf(errs.KindConfiguration, "sync.registry", "duplicate pipeline %q", p.Name)
		}
		if other, dup := modules[p.Module]; dup {
			return nil, errs.Errorf(errs.KindConfiguration, "sync.registry", "pipelines %q and %q share module %q", other, p.Name, p.Module)
		}
		modules[p.Module] = p.Name
		r.pipelines[p.Name] = p
	}
	return r, nil
}

// DefaultRegistry returns the pipelines shipped with the binary.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultPipelines()...)
	if err != nil {
		panic(err)
	}
	return r
}

func defaultPipelines() []PipelineConfig {
	return []PipelineConfig{
		{
			Name:              "members",
			Module:            "Members",
			DestinationModule: "members",
			MappingType:       "source_to_portal_members",
			Filters: []connectors.Predicate{
				{Field: "member_status", Operator: connectors.OpNotEquals, Value: "Deceased"},
				{Field: "email", Operator: connectors.OpNotNull, Value: true},
			},
			Fields:  []string{"id", "first_name", "last_name", "email", "phone", "member_status", "member_number", "account", "modified_on"},
			LogType: "member",
		},
		{
			Name:              "organizations",
			Module:            "Organizations",
			DestinationModule: "organizations",
			MappingType:       "source_to_portal_organizations",
			Filters: []connectors.Predicate{
				{Field: "status", Operator: connectors.OpEQ, Value: "active"},
			},
			Fields:  []string{"id", "name", "email", "phone", "website", "address", "modified_on"},
			LogType: "organization",
		},
		{
			Name:              "events",
			Module:            "Events",
			DestinationModule: "events",
			MappingType:       "source_to_portal_events",
			Filters: []connectors.Predicate{
				{Field: "category", Operator: connectors.OpIn, Value: []string{"conference", "webinar", "meetup"}},
				{Field: "published", Operator: connectors.OpEQ, Value: true},
			},
			Fields: []string{"id", "title", "starts_at", "ends_at", "venue", "category", "modified_on"},
			Related: []RelatedConfig{
				{Relation: "speakers", TargetField: "speakers", Fields: []string{"id", "name"}},
			},
			DropInvalid: true,
			LogType:     "event",
		},
	}
}

// Lookup returns the pipeline registered under name.
func (r *Registry) Lookup(name string) (PipelineConfig, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return PipelineConfig{}, errs.Errorf(errs.KindConfiguration, "sync.registry", "unknown task %q", name)
	}
	return p, nil
}

// Pipelines lists every pipeline ordered by name.
func (r *Registry) Pipelines() []PipelineConfig {
	out := make([]PipelineConfig, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks that every pipeline's mapping type can be resolved.
func (r *Registry) Validate(hasMapping func(string) bool) error {
	for _, p := range r.Pipelines() {
		if !hasMapping(p.MappingType) {
			return errs.Errorf(errs.KindConfiguration, "sync.registry", "pipeline %q uses unknown mapping type %q", p.Name, p.MappingType)
		}
	}
	return nil
}
