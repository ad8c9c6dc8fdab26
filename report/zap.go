package report

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-tiered-cache/cache"
)

type zapReporter struct {
	logger *zap.Logger
}

// Zap returns a reporter writing one structured entry per event.
func Zap(logger *zap.Logger) cache.Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapReporter{logger: logger}
}

func (r *zapReporter) Report(info cache.Info, e cache.Event) {
	fields := []zap.Field{
		zap.String("request_id", info.ID),
		zap.String("cache", info.CacheName),
		zap.String("key", info.CacheKey),
		zap.String("event", string(e.Name())),
	}
	if adapter := cache.AdapterOf(e); adapter != "" {
		fields = append(fields, zap.String("adapter", adapter))
	}
	if s, ok := e.(cache.StoreSuccess); ok {
		fields = append(fields, zap.Duration("ttl", s.TTL))
	}
	if err := cache.ErrorOf(e); err != nil {
		fields = append(fields, zap.Error(err))
	}

	switch LevelOf(e) {
	case LevelWarn:
		r.logger.Warn(message(e), fields...)
	case LevelInfo:
		r.logger.Info(message(e), fields...)
	default:
		r.logger.Debug(message(e), fields...)
	}
}
