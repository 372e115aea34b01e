package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogLedger writes rows to the process log instead of a database.
type LogLedger struct {
	logger *zap.Logger
}

func NewLogLedger(logger *zap.Logger) *LogLedger {
	return &LogLedger{logger: logger.Named("ledger")}
}

func (l *LogLedger) Record(_ context.Context, entry Entry) (string, error) {
	entry, err := normalize(entry, time.Now())
	if err != nil {
		return "", err
	}

	fields := []zap.Field{
		zap.String("id", entry.ID),
		zap.String("log_type", entry.LogType),
		zap.String("module_name", entry.ModuleName),
		zap.Time("log_date", entry.LogDate),
	}
	if entry.SourceID != "" {
		fields = append(fields, zap.String("source_id", entry.SourceID))
	}
	if entry.DestinationID != "" {
		fields = append(fields, zap.String("destination_id", entry.DestinationID))
	}
	if entry.HTTPStatus != 0 {
		fields = append(fields, zap.Int("http_status", entry.HTTPStatus))
	}
	if entry.InternalStatus != "" {
		fields = append(fields, zap.String("internal_status", entry.InternalStatus))
	}

	l.logger.Info(entry.Message, fields...)
	return entry.ID, nil
}
