package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go-portal-sync/internal/features/ledger"

	"go.uber.org/zap/zapcore"
)

const logBufferSize = 1000

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level   zapcore.Level
	Module  string
	Message string
	Caller  string
	Time    time.Time
}

// DBLogWriter turns error log entries into system ledger rows on a
// background worker. Entries queue until a ledger is attached.
type DBLogWriter struct {
	logChan chan LogEntry
	once    sync.Once
	done    chan struct{}
	closed  sync.Once
}

func NewDBLogWriter() *DBLogWriter {
	return &DBLogWriter{
		logChan: make(chan LogEntry, logBufferSize),
		done:    make(chan struct{}),
	}
}

// Attach starts the worker writing to sink. Later calls are ignored.
func (w *DBLogWriter) Attach(sink ledger.Ledger) {
	w.once.Do(func() {
		go w.processLogs(sink)
	})
}

// AddLog is called by our Zap core
func (w *DBLogWriter) AddLog(entry LogEntry) {
	defer func() {
		// the channel is closed after shutdown
		_ = recover()
	}()

	select {
	case w.logChan <- entry:
	default:
		fmt.Fprintln(os.Stderr, "ledger log channel full, dropping:", entry.Message)
	}
}

// Close stops accepting entries and waits for the worker to drain the queue.
func (w *DBLogWriter) Close(ctx context.Context) error {
	w.closed.Do(func() { close(w.logChan) })

	// never attached: nothing to drain
	w.once.Do(func() { close(w.done) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *DBLogWriter) processLogs(sink ledger.Ledger) {
	defer close(w.done)

	for entry := range w.logChan {
		row := ledger.Entry{
			LogType:        ledger.LogTypeSystem,
			ModuleName:     entry.Module,
			InternalStatus: entry.Level.String(),
			Message:        entry.Message,
			LogDate:        entry.Time,
		}
		if _, err := sink.Record(context.Background(), row); err != nil {
			fmt.Fprintln(os.Stderr, "ledger log write failed:", err)
		}
	}
}
