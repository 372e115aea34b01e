package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-portal-sync/internal/config"
	"go-portal-sync/internal/features/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(writer *DBLogWriter) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(NewDBCore(core, writer)), logs
}

func TestDBCoreForwardsModuleErrors(t *testing.T) {
	writer := NewDBLogWriter()
	sink := ledger.NewMemoryLedger()
	writer.Attach(sink)

	log, logs := newObservedLogger(writer)
	log.With(zap.String(ModuleKey, "Contacts")).Error("Sync failed", zap.Error(errors.New("503")))
	log.Error("no module here")
	log.With(zap.String(ModuleKey, "Contacts")).Warn("only a warning")
	log.Error("inline module", zap.String(ModuleKey, "Accounts"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, writer.Close(ctx))

	assert.Equal(t, 4, logs.Len())

	entries := sink.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.LogTypeSystem, entries[0].LogType)
	assert.Equal(t, "Contacts", entries[0].ModuleName)
	assert.Equal(t, "Sync failed: 503", entries[0].Message)
	assert.Equal(t, "error", entries[0].InternalStatus)
	assert.Equal(t, "Accounts", entries[1].ModuleName)
}

func TestDBLogWriterCloseWithoutLedger(t *testing.T) {
	writer := NewDBLogWriter()
	writer.AddLog(LogEntry{Module: "Contacts", Message: "queued"})

	require.NoError(t, writer.Close(context.Background()))
	// adding after close must not panic
	writer.AddLog(LogEntry{Module: "Contacts", Message: "late"})
}

func TestDBLogWriterSurvivesLedgerFailure(t *testing.T) {
	writer := NewDBLogWriter()
	sink := ledger.NewMemoryLedger()
	sink.Err = errors.New("connection reset")
	writer.Attach(sink)

	writer.AddLog(LogEntry{Level: zapcore.ErrorLevel, Module: "Contacts", Message: "boom"})
	assert.NoError(t, writer.Close(context.Background()))
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(&config.Config{LogLevel: "loud"}, NewDBLogWriter())
	assert.Error(t, err)
}

func TestNewLoggerWritesLogFile(t *testing.T) {
	path := t.TempDir() + "/sync.log"
	log, err := NewLogger(&config.Config{LogLevel: "info", LogFile: path, Environment: "production"}, NewDBLogWriter())
	require.NoError(t, err)

	log.Info("hello")
	_ = log.Sync()
	assert.FileExists(t, path)
}
