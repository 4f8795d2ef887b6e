package metrics

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRPCCall_Success(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitRPCCall(rec, RPCMetric{Method: "method1login", Duration: 20 * time.Millisecond})

	calls := rec.Named("rpc.call")
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]string{"method": "method1login", "result": ResultSuccess}, calls[0].Tags)

	timings := rec.Named("rpc.duration")
	require.Len(t, timings, 1)
	assert.InDelta(t, 20.0, timings[0].Value, 0.001)
}

func TestEmitRPCCall_ErrorTags(t *testing.T) {
	rec := statsd.NewRecorder()
	err := apperrors.ProtocolParse(apperrors.StageRPCLookupID, "id not found")
	EmitRPCCall(rec, RPCMetric{Method: "method7getResourceIds", Err: err})

	calls := rec.Named("rpc.call")
	require.Len(t, calls, 1)
	tags := calls[0].Tags
	assert.Equal(t, ResultError, tags["result"])
	assert.Equal(t, "protocol_parse", tags["error_code"])
	assert.Equal(t, "rpc.lookup_id", tags["stage"])
	assert.Equal(t, "errors_apperror", tags["error_class"])
	assert.Empty(t, rec.Named("rpc.duration"), "zero duration is not timed")
}

func TestEmitCrawl(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitCrawl(rec, CrawlMetric{Resources: 12, Folders: 3, Duration: time.Second})

	assert.Equal(t, int64(1), rec.Total("crawl.run"))
	gauges := rec.Named("crawl.resources")
	require.Len(t, gauges, 1)
	assert.InDelta(t, 12.0, gauges[0].Value, 0)

	rec = statsd.NewRecorder()
	EmitCrawl(rec, CrawlMetric{Err: errors.New("boom")})
	assert.Empty(t, rec.Named("crawl.resources"))
}

func TestEmitFeedFetch(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitFeedFetch(rec, FeedMetric{CacheHit: true, Components: 4, Duration: time.Millisecond})

	fetches := rec.Named("feed.fetch")
	require.Len(t, fetches, 1)
	assert.Equal(t, "true", fetches[0].Tags["cache_hit"])
	assert.Equal(t, int64(4), rec.Total("feed.components"))
}

func TestNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitRPCCall(nil, RPCMetric{Method: "m"})
		EmitCrawl(nil, CrawlMetric{})
		EmitFeedFetch(nil, FeedMetric{})
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1", "": "x"}
	out := CloneTags(src)
	out["a"] = "2"
	assert.Equal(t, "1", src["a"])
	_, ok := out[""]
	assert.False(t, ok)
}
