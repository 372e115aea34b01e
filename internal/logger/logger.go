package logger

import (
	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Error entries that carry a "module"
// field are also handed to writer for the ledger.
func NewLogger(cfg *config.Config, writer *DBLogWriter) (*zap.Logger, error) {

	// 1. Setup Base Config (Console/JSON)
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, errs.E(errs.KindConfiguration, "logger.new", err)
	}
	zapConfig.Level = level

	if cfg.LogFile != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.LogFile)
	}

	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, errs.E(errs.KindConfiguration, "logger.new", err)
	}

	// 2. Wrap the Core so error entries also reach the ledger
	finalCore := NewDBCore(baseLogger.Core(), writer)

	return zap.New(finalCore, zap.AddCaller()), nil
}
