package report

import "github.com/goliatone/go-tiered-cache/cache"

// Level is the log severity of an event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

// LevelOf maps an event to its log level: failures and stale fallbacks
// warn, custom producer messages are info, the rest is debug.
func LevelOf(e cache.Event) Level {
	switch e.(type) {
	case cache.GetCachedError, cache.FetchError, cache.StoreError, cache.EvictError, cache.StaleHitFromError:
		return LevelWarn
	case cache.Custom:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// message is the log line for e.
func message(e cache.Event) string {
	if c, ok := e.(cache.Custom); ok && c.Message != "" {
		return c.Message
	}
	return "cache " + string(e.Name())
}
