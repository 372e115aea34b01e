package sync

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/connectors"
	"go-portal-sync/internal/features/checkpoint"
	"go-portal-sync/internal/features/fetcher"
	"go-portal-sync/internal/features/ledger"
	"go-portal-sync/internal/features/mapping"

	"go.uber.org/zap"
)

// SyncService runs registered pipelines.
type SyncService interface {
	RunTask(ctx context.Context, name string) (*RunReport, error)
	Run(ctx context.Context, p PipelineConfig) (*RunReport, error)
	Tasks() []PipelineConfig
}

// RecordTransformer maps one source record onto a destination record.
type RecordTransformer interface {
	Has(mappingType string) bool
	Transform(record map[string]any, mappingType string) (*mapping.TransformationResult, error)
}

type SyncServiceImpl struct {
	Store       *checkpoint.Store
	Source      connectors.SourceClient
	Destination connectors.DestinationClient
	Transformer RecordTransformer
	Ledger      ledger.Ledger
	Registry    *Registry
	Logger      *zap.Logger

	pageSize int
	now      func() time.Time
}

func NewSyncService(
	store *checkpoint.Store,
	source connectors.SourceClient,
	destination connectors.DestinationClient,
	transformer RecordTransformer,
	ledgerSink ledger.Ledger,
	registry *Registry,
	logger *zap.Logger,
	pageSize int,
) *SyncServiceImpl {
	return &SyncServiceImpl{
		Store:       store,
		Source:      source,
		Destination: destination,
		Transformer: transformer,
		Ledger:      ledgerSink,
		Registry:    registry,
		Logger:      logger,
		pageSize:    pageSize,
		now:         time.Now,
	}
}

// WithClock replaces the clock that stamps run start and duration.
func (s *SyncServiceImpl) WithClock(now func() time.Time) *SyncServiceImpl {
	s.now = now
	return s
}

func (s *SyncServiceImpl) Tasks() []PipelineConfig {
	return s.Registry.Pipelines()
}

func (s *SyncServiceImpl) RunTask(ctx context.Context, name string) (*RunReport, error) {
	p, err := s.Registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, p)
}

// run carries the state of one attempt.
type run struct {
	p      PipelineConfig
	report *RunReport
	logger *zap.Logger
	start  time.Time
}

// Run executes one pipeline. A failed run marks the checkpoint failed without
// touching last_sync_at and returns the error.
func (s *SyncServiceImpl) Run(ctx context.Context, p PipelineConfig) (*RunReport, error) {
	p = p.withDefaults(s.pageSize)
	start := s.now().UTC()
	r := &run{
		p:      p,
		start:  start,
		logger: s.Logger.With(zap.String("module", p.Module), zap.String("task", p.Name)),
		report: &RunReport{Task: p.Name, Module: p.Module, Stage: StageIdle, StartedAt: start},
	}

	r.logger.Info("Sync started")

	if !s.Transformer.Has(p.MappingType) {
		err := errs.Errorf(errs.KindConfiguration, "sync.run", "unknown mapping type %q", p.MappingType)
		return s.abort(ctx, r, err)
	}

	cp, err := s.Store.Get(ctx, p.Module)
	if errs.IsKind(err, errs.KindNotFound) {
		err = errs.Errorf(errs.KindConfiguration, "sync.run", "no sync record for %q; create one first", p.Module)
	}
	if err != nil {
		return s.abort(ctx, r, err)
	}

	filter := s.buildFilter(p, cp)
	r.report.Stage = StageFilterBuilt

	r.report.Stage = StageFetching
	if _, err := s.Source.Authenticate(ctx); err != nil {
		return s.fail(ctx, r, err)
	}

	fetched, err := fetcher.New(s.Source, r.logger).FetchAll(ctx, fetcher.QueryConfig{
		Module:         p.Module,
		Filter:         filter,
		Fields:         p.Fields,
		PageSize:       p.PageSize,
		OrderBy:        p.OrderBy,
		OrderDirection: p.OrderDirection,
	}, func(page fetcher.Page) {
		r.logger.Info("Fetched page", zap.Int("page", page.Number), zap.Int("records", len(page.Records)))
	})
	if err != nil {
		return s.fail(ctx, r, err)
	}
	r.report.Fetched = fetched.TotalFetched
	r.report.Pages = fetched.Pages
	r.report.Truncated = fetched.Truncated

	if len(fetched.Records) == 0 {
		r.logger.Info("No changed records")
		return s.commit(ctx, r)
	}

	if err := s.expandRelated(ctx, p, fetched.Records); err != nil {
		return s.fail(ctx, r, err)
	}

	r.report.Stage = StageTransforming
	batch, sourceIDs := s.transformAll(ctx, r, fetched.Records)
	if len(batch) == 0 {
		r.logger.Warn("Every record was dropped, nothing to push")
		return s.commit(ctx, r)
	}

	r.report.Stage = StagePushing
	results, err := s.Destination.Push(ctx, p.DestinationModule, batch)
	if err != nil {
		return s.fail(ctx, r, err)
	}
	r.report.Pushed = len(batch)
	s.recordPushResults(ctx, r, results, sourceIDs)

	return s.commit(ctx, r)
}

func (s *SyncServiceImpl) buildFilter(p PipelineConfig, cp *checkpoint.SyncCheckpoint) []connectors.Predicate {
	filter := make([]connectors.Predicate, 0, len(p.Filters)+1)
	if cp.LastSyncAt != nil {
		filter = append(filter, connectors.Predicate{
			Field:    p.ModifiedField,
			Operator: connectors.OpGTE,
			Value:    cp.LastSyncAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return append(filter, p.Filters...)
}

func (s *SyncServiceImpl) expandRelated(ctx context.Context, p PipelineConfig, records []map[string]any) error {
	if len(p.Related) == 0 {
		return nil
	}
	for _, rec := range records {
		id := identifierOf(p, rec)
		if id == "" {
			continue
		}
		for _, rel := range p.Related {
			resp, err := s.Source.QueryRelated(ctx, connectors.RelatedRequest{
				Module:   p.Module,
				RecordID: id,
				Relation: rel.Relation,
				Fields:   rel.Fields,
				PageSize: rel.PageSize,
			})
			if err != nil {
				return err
			}
			related := make([]any, 0, len(resp.Records))
			for _, item := range resp.Records {
				related = append(related, item)
			}
			rec[rel.TargetField] = related
		}
	}
	return nil
}

// transformAll returns the push batch and, position for position, the source
// id of each pushed record.
func (s *SyncServiceImpl) transformAll(ctx context.Context, r *run, records []map[string]any) ([]map[string]any, []string) {
	batch := make([]map[string]any, 0, len(records))
	sourceIDs := make([]string, 0, len(records))

	for _, rec := range records {
		sourceID := identifierOf(r.p, rec)
		result, fallback := s.transformRecord(r, rec)
		if fallback {
			r.report.FallbackRecords++
		} else if !result.IsValid {
			r.report.ValidationFailures++
			r.logger.Warn("Record failed validation",
				zap.String("source_id", sourceID),
				zap.Strings("errors", result.ValidationErrors))

			if r.p.DropInvalid {
				r.report.Dropped++
				s.record(ctx, r.logger, ledger.Entry{
					LogType:        r.p.LogType,
					ModuleName:     r.p.Module,
					SourceID:       sourceID,
					InternalStatus: "dropped",
					Message:        "Record dropped: " + strings.Join(result.ValidationErrors, "; "),
				})
				continue
			}
		}
		batch = append(batch, result.Data)
		sourceIDs = append(sourceIDs, sourceID)
	}
	return batch, sourceIDs
}

// transformRecord never fails: errors and panics yield a fallback record.
func (s *SyncServiceImpl) transformRecord(r *run, rec map[string]any) (result *mapping.TransformationResult, fallback bool) {
	defer func() {
		if p := recover(); p != nil {
			result = s.fallbackRecord(r, rec, fmt.Errorf("panic: %v", p))
			fallback = true
		}
	}()

	result, err := s.Transformer.Transform(rec, r.p.MappingType)
	if err != nil {
		return s.fallbackRecord(r, rec, err), true
	}
	return result, false
}

func (s *SyncServiceImpl) fallbackRecord(r *run, rec map[string]any, cause error) *mapping.TransformationResult {
	r.logger.Warn("Transformation failed, using fallback record",
		zap.String("source_id", identifierOf(r.p, rec)),
		zap.Error(cause))

	data := make(map[string]any)
	for _, field := range r.p.IdentifierFields {
		if v, ok := rec[field]; ok && v != nil {
			data[field] = v
		}
	}
	return &mapping.TransformationResult{
		Data:             data,
		IsValid:          false,
		ValidationErrors: []string{"transformation failed: " + cause.Error()},
	}
}

func (s *SyncServiceImpl) recordPushResults(ctx context.Context, r *run, results []connectors.PushResult, sourceIDs []string) {
	aligned := len(results) == len(sourceIDs)
	if !aligned {
		r.logger.Warn("Push response does not match batch size",
			zap.Int("pushed", len(sourceIDs)),
			zap.Int("results", len(results)))
		if missing := len(sourceIDs) - len(results); missing > 0 {
			r.report.Failed += missing
		}
	}

	for i, res := range results {
		if res.Succeeded() {
			r.report.Succeeded++
		} else {
			r.report.Failed++
		}

		entry := ledger.Entry{
			LogType:        res.LogType,
			ModuleName:     res.ModuleName,
			SourceID:       res.SourceID,
			DestinationID:  res.DestinationID,
			HTTPStatus:     res.HTTPStatus,
			InternalStatus: res.InternalStatus,
			Message:        res.Message,
		}
		if entry.LogType == "" {
			entry.LogType = r.p.LogType
		}
		if entry.ModuleName == "" {
			entry.ModuleName = r.p.Module
		}
		if entry.SourceID == "" && aligned {
			entry.SourceID = sourceIDs[i]
		}
		if entry.Message == "" {
			entry.Message = http.StatusText(res.HTTPStatus)
		}
		if entry.Message == "" {
			entry.Message = "no message from destination"
		}
		if len(res.ValidationErrors) > 0 {
			entry.Message += ": " + strings.Join(res.ValidationErrors, "; ")
		}
		s.record(ctx, r.logger, entry)
	}
}

func (s *SyncServiceImpl) commit(ctx context.Context, r *run) (*RunReport, error) {
	r.report.Stage = StageCommitted
	s.finish(r)

	success := checkpoint.StatusSuccess
	_, err := s.Store.Update(ctx, r.p.Module, checkpoint.Patch{
		Status:     &success,
		LastSyncAt: &r.start,
		Metadata: map[string]any{
			"records_fetched":     r.report.Fetched,
			"records_pushed":      r.report.Pushed,
			"records_succeeded":   r.report.Succeeded,
			"records_failed":      r.report.Failed,
			"validation_failures": r.report.ValidationFailures,
			"fallback_records":    r.report.FallbackRecords,
			"duration_ms":         r.report.Duration.Milliseconds(),
		},
	})
	if err != nil {
		r.logger.Warn("Failed to update sync record", zap.Error(err))
	}

	s.record(ctx, r.logger, ledger.Entry{
		LogType:        ledger.LogTypeSync,
		ModuleName:     r.p.Module,
		InternalStatus: string(checkpoint.StatusSuccess),
		Message: fmt.Sprintf("Sync completed: %d fetched, %d pushed, %d succeeded, %d failed",
			r.report.Fetched, r.report.Pushed, r.report.Succeeded, r.report.Failed),
	})

	r.logger.Info("Sync completed",
		zap.Int("records_fetched", r.report.Fetched),
		zap.Int("records_pushed", r.report.Pushed),
		zap.Int("records_failed", r.report.Failed),
		zap.Duration("duration", r.report.Duration))
	return r.report, nil
}

// fail marks the checkpoint failed. last_sync_at is left as it was.
func (s *SyncServiceImpl) fail(ctx context.Context, r *run, cause error) (*RunReport, error) {
	failedStage := r.report.Stage
	failed := checkpoint.StatusFailed
	_, err := s.Store.Update(ctx, r.p.Module, checkpoint.Patch{
		Status: &failed,
		Metadata: map[string]any{
			"error":        cause.Error(),
			"failed_stage": string(failedStage),
			"error_kind":   string(errs.KindOf(cause)),
		},
	})
	if err != nil {
		r.logger.Warn("Failed to update sync record", zap.Error(err))
	}
	return s.abort(ctx, r, cause)
}

// abort ends a run that cannot touch its checkpoint.
func (s *SyncServiceImpl) abort(ctx context.Context, r *run, cause error) (*RunReport, error) {
	r.report.FailedStage = r.report.Stage
	r.report.Stage = StageFailed
	r.report.Error = cause.Error()
	s.finish(r)

	s.record(ctx, r.logger, ledger.Entry{
		LogType:        ledger.LogTypeSync,
		ModuleName:     r.p.Module,
		InternalStatus: string(checkpoint.StatusFailed),
		Message:        "Sync failed: " + cause.Error(),
	})

	r.logger.Error("Sync failed",
		zap.String("stage", string(r.report.FailedStage)),
		zap.String("error_kind", string(errs.KindOf(cause))),
		zap.Error(cause))
	return r.report, cause
}

func (s *SyncServiceImpl) finish(r *run) {
	r.report.FinishedAt = s.now().UTC()
	r.report.Duration = r.report.FinishedAt.Sub(r.start)
}

// record writes a ledger row. Failures are logged below error level so they
// are not fed back into the ledger.
func (s *SyncServiceImpl) record(ctx context.Context, logger *zap.Logger, entry ledger.Entry) {
	if _, err := s.Ledger.Record(ctx, entry); err != nil {
		logger.Warn("Failed to write ledger entry", zap.String("log_type", entry.LogType), zap.Error(err))
	}
}

func identifierOf(p PipelineConfig, rec map[string]any) string {
	for _, field := range p.IdentifierFields {
		if v, ok := rec[field]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}
