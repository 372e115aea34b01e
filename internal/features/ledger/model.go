package ledger

import (
	"time"
)

const (
	LogTypeSync   = "sync"
	LogTypeRecord = "record"
	LogTypeSystem = "system"
)

// Entry is one outcome row: a pushed record, a dropped record, a sync attempt
// or a system error.
type Entry struct {
	ID             string    `json:"id" bson:"_id"`
	LogType        string    `json:"log_type" bson:"log_type"`
	ModuleName     string    `json:"module_name" bson:"module_name"`
	SourceID       string    `json:"source_id,omitempty" bson:"source_id,omitempty"`
	DestinationID  string    `json:"destination_id,omitempty" bson:"destination_id,omitempty"`
	HTTPStatus     int       `json:"http_status,omitempty" bson:"http_status,omitempty"`
	InternalStatus string    `json:"internal_status,omitempty" bson:"internal_status,omitempty"`
	Message        string    `json:"message" bson:"message"`
	LogDate        time.Time `json:"log_date" bson:"log_date"`
}
