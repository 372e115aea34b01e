package checkpoint

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-portal-sync/internal/common/errs"
)

// Store is the checkpoint service. Every mutation is a read-modify-write of
// the whole document, so all operations run under one lock.
type Store struct {
	storage Storage
	mu      sync.Mutex
	now     func() time.Time
}

func NewStore(storage Storage) *Store {
	return &Store{
		storage: storage,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Get(ctx context.Context, identifier string) (*SyncCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, "checkpoint.get")
	if err != nil {
		return nil, err
	}

	idx := doc.find(identifier)
	if idx < 0 {
		return nil, notFound("checkpoint.get", identifier)
	}
	rec := doc.SyncRecords[idx].clone()
	return &rec, nil
}

// Create adds a checkpoint. Either identifier already resolving is a conflict.
func (s *Store) Create(ctx context.Context, rec SyncCheckpoint) (*SyncCheckpoint, error) {
	const op = "checkpoint.create"

	rec.ModuleName = strings.TrimSpace(rec.ModuleName)
	rec.IntegrationName = strings.TrimSpace(rec.IntegrationName)
	if rec.ModuleName == "" && rec.IntegrationName == "" {
		return nil, errs.Errorf(errs.KindValidation, op, "module_name or integration_name is required")
	}
	if rec.Direction == "" {
		rec.Direction = DirectionInbound
	}
	if !rec.Direction.Valid() {
		return nil, errs.Errorf(errs.KindValidation, op, "invalid direction %q", rec.Direction)
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if !rec.Status.Valid() {
		return nil, errs.Errorf(errs.KindValidation, op, "invalid status %q", rec.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, op)
	if err != nil {
		return nil, err
	}

	for _, id := range []string{rec.ModuleName, rec.IntegrationName} {
		if doc.find(id) >= 0 {
			return nil, errs.E(errs.KindAlreadyExists, op, fmt.Errorf("checkpoint %q: %w", id, errs.ErrAlreadyExists))
		}
	}

	now := s.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	doc.SyncRecords = append(doc.SyncRecords, rec.clone())

	if err := s.save(ctx, op, doc); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update merges patch into the checkpoint and stamps updated_at.
func (s *Store) Update(ctx context.Context, identifier string, patch Patch) (*SyncCheckpoint, error) {
	const op = "checkpoint.update"

	if patch.Direction != nil && !patch.Direction.Valid() {
		return nil, errs.Errorf(errs.KindValidation, op, "invalid direction %q", *patch.Direction)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, errs.Errorf(errs.KindValidation, op, "invalid status %q", *patch.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, op)
	if err != nil {
		return nil, err
	}

	idx := doc.find(identifier)
	if idx < 0 {
		return nil, notFound(op, identifier)
	}

	rec := &doc.SyncRecords[idx]
	if patch.Direction != nil {
		rec.Direction = *patch.Direction
	}
	if patch.Endpoint != nil {
		rec.Endpoint = *patch.Endpoint
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	switch {
	case patch.LastSyncAt != nil:
		t := patch.LastSyncAt.UTC()
		rec.LastSyncAt = &t
	case patch.ClearLastSyncAt:
		rec.LastSyncAt = nil
	}
	if patch.Metadata != nil {
		rec.Metadata = make(map[string]any, len(patch.Metadata))
		for k, v := range patch.Metadata {
			rec.Metadata[k] = v
		}
	}
	rec.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, op, doc); err != nil {
		return nil, err
	}
	out := rec.clone()
	return &out, nil
}

func (s *Store) Delete(ctx context.Context, identifier string) error {
	const op = "checkpoint.delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, op)
	if err != nil {
		return err
	}

	idx := doc.find(identifier)
	if idx < 0 {
		return notFound(op, identifier)
	}
	doc.SyncRecords = append(doc.SyncRecords[:idx], doc.SyncRecords[idx+1:]...)

	return s.save(ctx, op, doc)
}

// List returns checkpoints matching filter, ordered by key.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]SyncCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, "checkpoint.list")
	if err != nil {
		return nil, err
	}

	out := make([]SyncCheckpoint, 0, len(doc.SyncRecords))
	for i := range doc.SyncRecords {
		if filter.matches(&doc.SyncRecords[i]) {
			out = append(out, doc.SyncRecords[i].clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// ResetAll sets every checkpoint to pending and clears last_sync_at.
func (s *Store) ResetAll(ctx context.Context) (int, error) {
	const op = "checkpoint.reset"

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx, op)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	for i := range doc.SyncRecords {
		doc.SyncRecords[i].Status = StatusPending
		doc.SyncRecords[i].LastSyncAt = nil
		doc.SyncRecords[i].UpdatedAt = now
	}

	if err := s.save(ctx, op, doc); err != nil {
		return 0, err
	}
	return len(doc.SyncRecords), nil
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:       len(records),
		ByStatus:    make(map[Status]int),
		ByDirection: make(map[Direction]int),
	}
	for _, rec := range records {
		stats.ByStatus[rec.Status]++
		stats.ByDirection[rec.Direction]++
		if rec.LastSyncAt == nil {
			stats.NeverSynced++
			continue
		}
		if stats.OldestSyncAt == nil || rec.LastSyncAt.Before(*stats.OldestSyncAt) {
			stats.OldestSyncAt = rec.LastSyncAt
		}
		if stats.NewestSyncAt == nil || rec.LastSyncAt.After(*stats.NewestSyncAt) {
			stats.NewestSyncAt = rec.LastSyncAt
		}
	}
	return stats, nil
}

func (s *Store) load(ctx context.Context, op string) (*Document, error) {
	doc, err := loadOrInit(ctx, s.storage, s.now())
	if err != nil {
		return nil, errs.E(errs.KindPersistence, op, err)
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, op string, doc *Document) error {
	return errs.E(errs.KindPersistence, op, s.storage.Save(ctx, doc))
}

func notFound(op, identifier string) error {
	return errs.E(errs.KindNotFound, op, fmt.Errorf("checkpoint %q: %w", identifier, errs.ErrNotFound))
}
