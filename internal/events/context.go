package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	syncIDKey
	recordKeyKey
)

// FromContext extracts logger from context.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithSyncID tags the context with a sync cycle identifier.
func WithSyncID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("sync_id", id)
	ctx = context.WithValue(ctx, syncIDKey, id)
	return WithLogger(ctx, logger)
}

// WithRecordKey tags the context with the remote record being processed.
func WithRecordKey(ctx context.Context, key string) context.Context {
	logger := FromContext(ctx).WithField("record_key", key)
	ctx = context.WithValue(ctx, recordKeyKey, key)
	return WithLogger(ctx, logger)
}

// GetSyncID retrieves the sync cycle identifier from context.
func GetSyncID(ctx context.Context) string {
	if id, ok := ctx.Value(syncIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRecordKey retrieves the remote record key from context.
func GetRecordKey(ctx context.Context) string {
	if key, ok := ctx.Value(recordKeyKey).(string); ok {
		return key
	}
	return ""
}

var defaultLogger = &Logger{
	level:  InfoLevel,
	format: "text",
	output: os.Stdout,
	fields: make(map[string]interface{}),
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
