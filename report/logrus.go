package report

import (
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-tiered-cache/cache"
)

type logrusReporter struct {
	logger logrus.FieldLogger
}

// Logrus returns a reporter writing one structured entry per event.
func Logrus(logger logrus.FieldLogger) cache.Reporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &logrusReporter{logger: logger}
}

func (r *logrusReporter) Report(info cache.Info, e cache.Event) {
	fields := logrus.Fields{
		"request_id": info.ID,
		"cache":      info.CacheName,
		"key":        info.CacheKey,
		"event":      string(e.Name()),
	}
	if adapter := cache.AdapterOf(e); adapter != "" {
		fields["adapter"] = adapter
	}
	if s, ok := e.(cache.StoreSuccess); ok {
		fields["ttl"] = s.TTL.String()
	}

	entry := r.logger.WithFields(fields)
	if err := cache.ErrorOf(e); err != nil {
		entry = entry.WithError(err)
	}

	switch LevelOf(e) {
	case LevelWarn:
		entry.Warn(message(e))
	case LevelInfo:
		entry.Info(message(e))
	default:
		entry.Debug(message(e))
	}
}
