package logger

import (
	"go.uber.org/zap/zapcore"
)

// ModuleKey is the field that routes an error entry to the ledger.
const ModuleKey = "module"

// DBCore is a custom Zap Core that forwards error entries to the ledger writer
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
	module string
}

// NewDBCore wraps an existing core and adds ledger forwarding
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:   c.Core.With(fields),
		writer: c.writer,
		module: moduleOf(fields, c.module),
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= zapcore.ErrorLevel && c.writer != nil {
		if module := moduleOf(fields, c.module); module != "" {
			message := entry.Message
			for _, f := range fields {
				if f.Key == "error" {
					if err, ok := f.Interface.(error); ok {
						message += ": " + err.Error()
					}
				}
			}
			c.writer.AddLog(LogEntry{
				Level:   entry.Level,
				Module:  module,
				Message: message,
				Caller:  entry.Caller.Function,
				Time:    entry.Time,
			})
		}
	}

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func moduleOf(fields []zapcore.Field, fallback string) string {
	for _, f := range fields {
		if f.Key == ModuleKey && f.Type == zapcore.StringType {
			return f.String
		}
	}
	return fallback
}
