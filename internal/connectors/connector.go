package connectors

import (
	"context"
	"encoding/json"
)

// Operator is a single-field filter operator understood by the source system.
type Operator string

const (
	OpGTE       Operator = "$gte"
	OpEQ        Operator = "$eq"
	OpNE        Operator = "$ne"
	OpIn        Operator = "$in"
	OpContains  Operator = "$contains"
	OpNotNull   Operator = "$not_null"
	OpNotEquals Operator = "$not_equals"
)

// Predicate constrains one field. A filter is a list of predicates that are
// AND-ed together.
type Predicate struct {
	Field    string
	Operator Operator
	Value    any
}

// MarshalJSON encodes the predicate as {"field": {"$op": value}}.
func (p Predicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[Operator]any{
		p.Field: {p.Operator: p.Value},
	})
}

// QueryRequest asks the source for one page of records.
type QueryRequest struct {
	Module         string      `json:"-"`
	Filter         []Predicate `json:"filter,omitempty"`
	Fields         []string    `json:"fields,omitempty"`
	PageSize       int         `json:"page_size"`
	Offset         int         `json:"offset"`
	OrderBy        string      `json:"order_by,omitempty"`
	OrderDirection string      `json:"order_direction,omitempty"`
}

// RelatedRequest asks for records linked to one source record.
type RelatedRequest struct {
	Module   string      `json:"-"`
	RecordID string      `json:"-"`
	Relation string      `json:"-"`
	Fields   []string    `json:"fields,omitempty"`
	Filter   []Predicate `json:"filter,omitempty"`
	PageSize int         `json:"page_size"`
	Offset   int         `json:"offset"`
}

// QueryResponse is one page of source records.
type QueryResponse struct {
	Records    []map[string]any `json:"records"`
	HasMore    bool             `json:"has_more"`
	NextOffset int              `json:"next_offset"`
	TotalCount int              `json:"total_count"`
}

// SourceClient reads records from the source record-management system.
type SourceClient interface {
	// Authenticate acquires (or refreshes) an access token.
	Authenticate(ctx context.Context) (string, error)

	// Query returns one page of records for a module.
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)

	// QueryRelated returns records linked to a single source record.
	QueryRelated(ctx context.Context, req RelatedRequest) (*QueryResponse, error)
}

// PushResult is the destination's verdict on one pushed record.
type PushResult struct {
	LogType          string   `json:"logType"`
	ModuleName       string   `json:"moduleName"`
	SourceID         string   `json:"sourceId"`
	DestinationID    string   `json:"destinationId"`
	HTTPStatus       int      `json:"httpStatus"`
	InternalStatus   string   `json:"internalStatus"`
	Message          string   `json:"message"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}

// Succeeded reports whether the destination accepted the record.
func (r PushResult) Succeeded() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300
}

// DestinationClient writes records into the destination portal.
type DestinationClient interface {
	// Push sends a batch and returns one result per input record.
	Push(ctx context.Context, module string, batch []map[string]any) ([]PushResult, error)
}
