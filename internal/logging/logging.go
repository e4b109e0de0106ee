// Package logging provides categorized structured logging for the RAG engine.
// Each component gets its own named zap.SugaredLogger so log lines are always
// attributable to a component without string-parsing messages.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the component emitting a log line.
type Category string

const (
	CategoryStore      Category = "store"
	CategoryExtractor  Category = "extractor"
	CategorySchema     Category = "schemagraph"
	CategoryEmbedding  Category = "embedding"
	CategoryEnrichment Category = "enrichment"
	CategoryRetrieval  Category = "retrieval"
	CategorySync       Category = "sync"
	CategoryConfig     Category = "config"
	CategoryBoundary   Category = "boundary"
)

var (
	mu      sync.RWMutex
	base    *zap.Logger
	loggers = make(map[Category]*zap.SugaredLogger)
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if os.Getenv("RAGCORE_DEBUG") != "" {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	base = l
}

// Configure rebuilds the base logger, e.g. to point file output at a workspace's
// .llmc/logs directory. Safe to call once at process start.
func Configure(jsonFormat bool, debug bool, outputPaths []string) error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !jsonFormat {
		cfg.Encoding = "console"
	}
	if len(outputPaths) > 0 {
		cfg.OutputPaths = outputPaths
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	loggers = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
	return nil
}

// For returns the sugared logger for a category, creating it on first use.
func For(cat Category) *zap.SugaredLogger {
	mu.RLock()
	l, ok := loggers[cat]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l = base.Sugar().With("component", string(cat))
	loggers[cat] = l
	return l
}

// Sync flushes all buffered log entries. Call before process exit.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}
