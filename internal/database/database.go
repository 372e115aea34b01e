package database

import (
	"context"
	"database/sql"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MongodbDB struct {
	DB *mongo.Database
}

// NewDatabase creates a new MongoDB database connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, errs.E(errs.KindPersistence, "database.mongo", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.E(errs.KindPersistence, "database.mongo", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", cfg.DBName))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Disconnecting from MongoDB")
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{DB: client.Database(cfg.DBName)}, nil
}

// NewPostgres opens the ledger database and applies its schema.
func NewPostgres(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.LedgerDatabaseURL)
	if err != nil {
		return nil, errs.E(errs.KindPersistence, "database.postgres", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.E(errs.KindPersistence, "database.postgres", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, errs.E(errs.KindPersistence, "database.postgres", err)
	}

	logger.Info("Connected to PostgreSQL")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing PostgreSQL connection")
			return db.Close()
		},
	})

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS integration_logs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		log_type VARCHAR(50) NOT NULL,
		module_name VARCHAR(100) NOT NULL,
		source_id UUID,
		destination_id UUID,
		http_status INTEGER,
		internal_status VARCHAR(50),
		message TEXT NOT NULL,
		log_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_integration_logs_module_date
		ON integration_logs (module_name, log_date DESC);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}
