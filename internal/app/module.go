package app

import (
	"context"

	"go-portal-sync/internal/config"
	"go-portal-sync/internal/connectors"
	"go-portal-sync/internal/database"
	"go-portal-sync/internal/features/checkpoint"
	"go-portal-sync/internal/features/ledger"
	"go-portal-sync/internal/features/mapping"
	sync_feature "go-portal-sync/internal/features/sync"
	"go-portal-sync/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Core provides everything a sync run needs. Constructors run only when a
// command asks for their output, so listing checkpoints never builds the
// HTTP clients.
var Core = fx.Options(
	fx.Provide(
		// Load Config
		config.LoadConfig,

		// Initialize Logger
		logger.NewDBLogWriter,
		logger.NewLogger,

		// Storage
		NewMongo,
		NewCheckpointStorage,
		checkpoint.NewStore,
		NewLedger,

		// Mapping
		NewMappingTable,
		mapping.NewTransformer,
		NewRegistry,

		// Remote systems
		NewSourceClient,
		NewDestinationClient,

		NewSyncService,
	),
	fx.Invoke(AttachLedgerLog),
)

// WithLogger routes fx events through zap when verbose, otherwise silences them.
func WithLogger(verbose bool) fx.Option {
	if !verbose {
		return fx.NopLogger
	}
	return fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	})
}

// NewMongo connects only when a Mongo backend is configured.
func NewMongo(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*database.MongodbDB, error) {
	if cfg.CheckpointBackend != config.CheckpointBackendMongo && cfg.LedgerBackend != config.LedgerBackendMongo {
		return nil, nil
	}
	return database.NewDatabase(lc, cfg, log)
}

func NewCheckpointStorage(cfg *config.Config, mongodb *database.MongodbDB) checkpoint.Storage {
	if cfg.CheckpointBackend == config.CheckpointBackendMongo {
		return checkpoint.NewMongoStorage(mongodb)
	}
	return checkpoint.NewFileStorage(cfg.CheckpointFile)
}

func NewLedger(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, mongodb *database.MongodbDB) (ledger.Ledger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendPostgres:
		db, err := database.NewPostgres(lc, cfg, log)
		if err != nil {
			return nil, err
		}
		return ledger.NewPostgresLedger(db), nil
	case config.LedgerBackendMongo:
		return ledger.NewMongoLedger(mongodb), nil
	}
	return ledger.NewLogLedger(log), nil
}

// AttachLedgerLog starts forwarding error log entries to the ledger and
// drains the queue on shutdown.
func AttachLedgerLog(lc fx.Lifecycle, writer *logger.DBLogWriter, sink ledger.Ledger) {
	writer.Attach(sink)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return writer.Close(ctx)
		},
	})
}

func NewMappingTable(cfg *config.Config) (mapping.Table, error) {
	return mapping.LoadFile(cfg.FieldMappingsPath)
}

// NewRegistry returns the built-in pipelines after checking every mapping
// type they name exists.
func NewRegistry(transformer *mapping.Transformer) (*sync_feature.Registry, error) {
	registry := sync_feature.DefaultRegistry()
	if err := registry.Validate(transformer.Has); err != nil {
		return nil, err
	}
	return registry, nil
}

func NewSourceClient(cfg *config.Config) (connectors.SourceClient, error) {
	return connectors.NewHTTPSourceClient(cfg)
}

func NewDestinationClient(cfg *config.Config) (connectors.DestinationClient, error) {
	return connectors.NewHTTPDestinationClient(cfg)
}

func NewSyncService(
	cfg *config.Config,
	store *checkpoint.Store,
	source connectors.SourceClient,
	destination connectors.DestinationClient,
	transformer *mapping.Transformer,
	sink ledger.Ledger,
	registry *sync_feature.Registry,
	log *zap.Logger,
) sync_feature.SyncService {
	return sync_feature.NewSyncService(store, source, destination, transformer, sink, registry, log, cfg.SourcePageSize)
}
