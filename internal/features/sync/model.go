package sync

import (
	"time"

	"go-portal-sync/internal/connectors"
)

// Stage is a step of a sync run.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageFilterBuilt  Stage = "filter_built"
	StageFetching     Stage = "fetching"
	StageTransforming Stage = "transforming"
	StagePushing      Stage = "pushing"
	StageCommitted    Stage = "committed"
	StageFailed       Stage = "failed"
)

// RelatedConfig expands each fetched record with linked source records.
type RelatedConfig struct {
	Relation    string   `json:"relation"`
	TargetField string   `json:"target_field"`
	Fields      []string `json:"fields,omitempty"`
	PageSize    int      `json:"page_size,omitempty"`
}

// PipelineConfig is the full set of options for one entity-type sync.
type PipelineConfig struct {
	// Name is the task name used on the command line and in schedules.
	Name string `json:"name"`
	// Module is both the source module and the checkpoint identifier.
	Module            string `json:"module"`
	DestinationModule string `json:"destination_module"`
	MappingType       string `json:"mapping_type"`

	Filters        []connectors.Predicate `json:"-"`
	Fields         []string               `json:"fields,omitempty"`
	PageSize       int                    `json:"page_size,omitempty"`
	OrderBy        string                 `json:"order_by,omitempty"`
	OrderDirection string                 `json:"order_direction,omitempty"`

	// ModifiedField is compared against the checkpoint's last_sync_at.
	ModifiedField string `json:"modified_field,omitempty"`
	// IdentifierFields are kept on fallback records.
	IdentifierFields []string        `json:"identifier_fields,omitempty"`
	Related          []RelatedConfig `json:"related,omitempty"`

	// DropInvalid keeps records that fail validation out of the push.
	DropInvalid bool `json:"drop_invalid,omitempty"`
	// LogType labels ledger rows written for this pipeline's records.
	LogType string `json:"log_type,omitempty"`
}

const (
	defaultModifiedField  = "modified_on"
	defaultOrderDirection = "asc"
	defaultLogType        = "record"
)

// withDefaults fills every unset option. fallbackPageSize comes from config.
func (p PipelineConfig) withDefaults(fallbackPageSize int) PipelineConfig {
	if p.DestinationModule == "" {
		p.DestinationModule = p.Name
	}
	if p.PageSize <= 0 {
		p.PageSize = fallbackPageSize
	}
	if p.ModifiedField == "" {
		p.ModifiedField = defaultModifiedField
	}
	if p.OrderBy == "" {
		p.OrderBy = p.ModifiedField
	}
	if p.OrderDirection == "" {
		p.OrderDirection = defaultOrderDirection
	}
	if len(p.IdentifierFields) == 0 {
		p.IdentifierFields = []string{"id"}
	}
	if p.LogType == "" {
		p.LogType = defaultLogType
	}
	// Related is shared with the registry entry
	p.Related = append([]RelatedConfig(nil), p.Related...)
	for i := range p.Related {
		if p.Related[i].TargetField == "" {
			p.Related[i].TargetField = p.Related[i].Relation
		}
		if p.Related[i].PageSize <= 0 {
			p.Related[i].PageSize = p.PageSize
		}
	}
	return p
}

// RunReport summarizes one sync attempt.
type RunReport struct {
	Task               string        `json:"task"`
	Module             string        `json:"module"`
	Stage              Stage         `json:"stage"`
	FailedStage        Stage         `json:"failed_stage,omitempty"`
	StartedAt          time.Time     `json:"started_at"`
	FinishedAt         time.Time     `json:"finished_at"`
	Duration           time.Duration `json:"duration"`
	Fetched            int           `json:"records_fetched"`
	Pages              int           `json:"pages"`
	Truncated          bool          `json:"truncated,omitempty"`
	Pushed             int           `json:"records_pushed"`
	Succeeded          int           `json:"records_succeeded"`
	Failed             int           `json:"records_failed"`
	ValidationFailures int           `json:"validation_failures"`
	FallbackRecords    int           `json:"fallback_records"`
	Dropped            int           `json:"records_dropped"`
	Error              string        `json:"error,omitempty"`
}
