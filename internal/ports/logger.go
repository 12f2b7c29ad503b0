package ports

import "context"

// Fields carries structured key/value context alongside a log message.
type Fields = map[string]interface{}

// Logger is the logging abstraction used by every component of the pipeline.
// The concrete implementation lives in internal/adapters/logger.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs err together with msg. err may be nil.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}
