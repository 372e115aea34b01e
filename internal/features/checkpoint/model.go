package checkpoint

import (
	"time"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusSuccess || s == StatusFailed
}

// SyncCheckpoint is the persisted high-water mark of one entity type.
type SyncCheckpoint struct {
	ModuleName      string         `json:"module_name,omitempty" bson:"module_name,omitempty"`
	IntegrationName string         `json:"integration_name,omitempty" bson:"integration_name,omitempty"`
	Direction       Direction      `json:"direction" bson:"direction"`
	Endpoint        string         `json:"endpoint,omitempty" bson:"endpoint,omitempty"`
	Status          Status         `json:"status" bson:"status"`
	LastSyncAt      *time.Time     `json:"last_sync_at" bson:"last_sync_at"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" bson:"updated_at"`
	Metadata        map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Matches reports whether identifier names this checkpoint by either key.
func (c *SyncCheckpoint) Matches(identifier string) bool {
	if identifier == "" {
		return false
	}
	return c.ModuleName == identifier || c.IntegrationName == identifier
}

// Key is the identifier shown to operators.
func (c *SyncCheckpoint) Key() string {
	if c.ModuleName != "" {
		return c.ModuleName
	}
	return c.IntegrationName
}

func (c SyncCheckpoint) clone() SyncCheckpoint {
	out := c
	if c.LastSyncAt != nil {
		t := *c.LastSyncAt
		out.LastSyncAt = &t
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Document is the single at-rest document holding every checkpoint.
type Document struct {
	SyncRecords []SyncCheckpoint `json:"sync_records" bson:"sync_records"`
	Metadata    DocumentMetadata `json:"metadata" bson:"metadata"`
}

type DocumentMetadata struct {
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Version     string    `json:"version" bson:"version"`
	Description string    `json:"description" bson:"description"`
}

const documentVersion = "1.0"

// NewDocument returns an empty document stamped with now.
func NewDocument(now time.Time) *Document {
	return &Document{
		SyncRecords: []SyncCheckpoint{},
		Metadata: DocumentMetadata{
			CreatedAt:   now.UTC(),
			Version:     documentVersion,
			Description: "Sync checkpoints per entity type",
		},
	}
}

func (d *Document) clone() *Document {
	out := &Document{Metadata: d.Metadata, SyncRecords: make([]SyncCheckpoint, len(d.SyncRecords))}
	for i, rec := range d.SyncRecords {
		out.SyncRecords[i] = rec.clone()
	}
	return out
}

func (d *Document) find(identifier string) int {
	for i := range d.SyncRecords {
		if d.SyncRecords[i].Matches(identifier) {
			return i
		}
	}
	return -1
}

// Patch is a partial update. Nil fields are left untouched; LastSyncAt is only
// changed when set or when ClearLastSyncAt is true. A non-nil Metadata replaces
// the stored bag.
type Patch struct {
	Direction       *Direction
	Endpoint        *string
	Status          *Status
	LastSyncAt      *time.Time
	ClearLastSyncAt bool
	Metadata        map[string]any
}

type ListFilter struct {
	Status    Status
	Direction Direction
}

func (f ListFilter) matches(c *SyncCheckpoint) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Direction != "" && c.Direction != f.Direction {
		return false
	}
	return true
}

type Stats struct {
	Total        int               `json:"total"`
	ByStatus     map[Status]int    `json:"by_status"`
	ByDirection  map[Direction]int `json:"by_direction"`
	NeverSynced  int               `json:"never_synced"`
	OldestSyncAt *time.Time        `json:"oldest_sync_at,omitempty"`
	NewestSyncAt *time.Time        `json:"newest_sync_at,omitempty"`
}
