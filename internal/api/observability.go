package api

import "go.uber.org/zap"

// CallEvent records metadata about a single API call.
type CallEvent struct {
	Method     string
	Path       string
	StatusCode int
	Attempts   int
	LatencyMs  int64
	Success    bool
	ErrorCode  string
}

// Observer receives events about API calls.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to a zap logger at debug level, and
// failures at warn.
type LogObserver struct {
	log *zap.Logger
}

func NewLogObserver(log *zap.Logger) *LogObserver {
	return &LogObserver{log: log.Named("api")}
}

func (o *LogObserver) OnCallComplete(e CallEvent) {
	fields := []zap.Field{
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Int("status", e.StatusCode),
		zap.Int("attempts", e.Attempts),
		zap.Int64("latency_ms", e.LatencyMs),
	}
	if e.Success {
		o.log.Debug("api_call", fields...)
		return
	}
	o.log.Warn("api_call", append(fields, zap.String("error_code", e.ErrorCode))...)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
