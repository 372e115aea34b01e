package ledger

import (
	"context"
	"database/sql"
	"time"

	"go-portal-sync/internal/common/errs"
)

// PostgresLedger writes rows into the integration_logs table.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const insertEntry = `
	INSERT INTO integration_logs
		(id, log_type, module_name, source_id, destination_id, http_status, internal_status, message, log_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

func (l *PostgresLedger) Record(ctx context.Context, entry Entry) (string, error) {
	entry, err := normalize(entry, time.Now())
	if err != nil {
		return "", err
	}

	var id string
	err = l.db.QueryRowContext(ctx, insertEntry,
		entry.ID,
		entry.LogType,
		entry.ModuleName,
		nullString(entry.SourceID),
		nullString(entry.DestinationID),
		sql.NullInt32{Int32: int32(entry.HTTPStatus), Valid: entry.HTTPStatus != 0},
		nullString(entry.InternalStatus),
		entry.Message,
		entry.LogDate,
	).Scan(&id)
	if err != nil {
		return "", errs.E(errs.KindPersistence, "ledger.postgres", err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
