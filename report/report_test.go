package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/pkg/testsupport"
)

var info = cache.Info{ID: "req-1", CacheName: "posts", CacheKey: "posts-hello"}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, LevelWarn, LevelOf(cache.FetchError{Err: errors.New("x")}))
	assert.Equal(t, LevelWarn, LevelOf(cache.StaleHitFromError{}))
	assert.Equal(t, LevelWarn, LevelOf(cache.StoreError{Adapter: "redis"}))
	assert.Equal(t, LevelInfo, LevelOf(cache.Custom{Message: "hi"}))
	assert.Equal(t, LevelDebug, LevelOf(cache.GetCachedHit{Adapter: "LRU"}))
	assert.Equal(t, LevelDebug, LevelOf(cache.Skip{}))
}

func TestLogrus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r := Logrus(logger)

	r.Report(info, cache.StoreSuccess{Adapter: "redis", Result: "v", CacheKey: info.CacheKey, TTL: time.Minute})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "cache onStoreSuccess", entry.Message)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, "posts", entry.Data["cache"])
	assert.Equal(t, "redis", entry.Data["adapter"])
	assert.Equal(t, "1m0s", entry.Data["ttl"])

	boom := errors.New("boom")
	r.Report(info, cache.FetchError{Err: boom})
	entry = hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, boom, entry.Data[logrus.ErrorKey])
	_, hasAdapter := entry.Data["adapter"]
	assert.False(t, hasAdapter)

	r.Report(info, cache.Custom{Message: "query sent"})
	entry = hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "query sent", entry.Message)

	assert.Len(t, hook.AllEntries(), 3)
}

func TestZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := Zap(zap.New(core))

	r.Report(info, cache.GetCachedHit{Adapter: "LRU", Result: "v"})
	r.Report(info, cache.EvictError{Adapter: "redis", Err: errors.New("down")})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "cache onGetCachedHit", entries[0].Message)
	assert.Equal(t, "LRU", entries[0].ContextMap()["adapter"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "down", entries[1].ContextMap()["error"])
}

func TestZap_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Zap(nil).Report(info, cache.Skip{})
	})
}

func TestPrometheus(t *testing.T) {
	p := NewPrometheus("test")
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(p))

	p.Report(info, cache.GetCachedMiss{Adapter: "LRU"})
	p.Report(info, cache.GetCachedMiss{Adapter: "LRU"})
	p.Report(info, cache.FetchSuccess{Result: "v"})

	assert.Equal(t, 2.0, testutil.ToFloat64(p.Counter("posts", cache.EventGetCachedMiss, "LRU")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Counter("posts", cache.EventFetchSuccess, "")))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "test_cache_events_total", families[0].GetName())
}

func TestStats(t *testing.T) {
	s := NewStats()

	s.Report(info, cache.GetCachedHit{Adapter: "LRU"})
	s.Report(info, cache.GetCachedHit{Adapter: "LRU"})
	s.Report(info, cache.GetCachedHit{Adapter: "LRU"})
	s.Report(info, cache.GetCachedMiss{Adapter: "LRU"})
	s.Report(info, cache.GetCachedMiss{Adapter: "redis"})
	s.Report(info, cache.FetchStart{})

	assert.Equal(t, int64(3), s.Count(cache.EventGetCachedHit))
	assert.Equal(t, int64(2), s.Count(cache.EventGetCachedMiss))
	assert.Equal(t, int64(1), s.CountFor(cache.EventGetCachedMiss, "redis"))
	assert.Equal(t, 0.75, s.HitRatio("LRU"))
	assert.Equal(t, 0.0, s.HitRatio("unknown"))
	assert.Equal(t, int64(1), s.Snapshot()["onFetchStart"])

	s.Reset()
	assert.Equal(t, int64(0), s.Count(cache.EventGetCachedHit))
}

func TestStats_Concurrent(t *testing.T) {
	s := NewStats()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Report(info, cache.StoreStart{Adapter: "LRU"})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), s.CountFor(cache.EventStoreStart, "LRU"))
}

func TestMulti(t *testing.T) {
	var first, second testsupport.EventLog
	r := Multi(&first, nil, &second)

	r.Report(info, cache.Skip{})

	assert.Equal(t, 1, first.Count(cache.EventSkip))
	assert.Equal(t, 1, second.Count(cache.EventSkip))
}

func TestReportersOnClient(t *testing.T) {
	stats := NewStats()
	prom := NewPrometheus("app")
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	client, err := cache.New(cache.Config[string, string]{
		CacheName: "posts",
		Tiers:     []cache.Adapter[string]{testsupport.NewTier[string]("memory")},
		Fetch: func(context.Context, *cache.Context[string]) (string, error) {
			return "v", nil
		},
		CacheKey: func(p string, _ *string) string { return p },
		Reporter: Static[string](Multi(stats, prom, Logrus(logger))),
	})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), "a")
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.CountFor(cache.EventGetCachedHit, "memory"))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.Counter("posts", cache.EventStoreSuccess, "memory")))
	assert.NotEmpty(t, hook.AllEntries())
}
