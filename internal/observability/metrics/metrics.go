// Package metrics emits the client's standard StatsD metrics.
package metrics

import (
	"strconv"
	"time"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	obserrors "github.com/campus-tools/adeplanning/internal/observability/errors"
	"github.com/campus-tools/adeplanning/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// RPCMetric captures one GWT call.
type RPCMetric struct {
	Method   string
	Duration time.Duration
	Err      error
}

// EmitRPCCall emits rpc.call and rpc.duration.
func EmitRPCCall(sink statsd.Sink, in RPCMetric) {
	if sink == nil {
		return
	}
	tags := resultTags(in.Err)
	tags["method"] = in.Method

	sink.Count("rpc.call", 1, tags)
	if in.Duration > 0 {
		sink.Timing("rpc.duration", in.Duration, CloneTags(tags))
	}
}

// CrawlMetric summarises one resource tree crawl.
type CrawlMetric struct {
	Resources int
	Folders   int
	Duration  time.Duration
	Err       error
}

// EmitCrawl emits crawl.run, crawl.duration and the catalog size gauges.
func EmitCrawl(sink statsd.Sink, in CrawlMetric) {
	if sink == nil {
		return
	}
	tags := resultTags(in.Err)
	sink.Count("crawl.run", 1, tags)
	if in.Duration > 0 {
		sink.Timing("crawl.duration", in.Duration, CloneTags(tags))
	}
	if in.Err == nil {
		sink.Gauge("crawl.resources", float64(in.Resources), nil)
		sink.Gauge("crawl.folders", float64(in.Folders), nil)
	}
}

// FeedMetric captures one calendar feed retrieval.
type FeedMetric struct {
	CacheHit   bool
	Components int
	Duration   time.Duration
	Err        error
}

// EmitFeedFetch emits feed.fetch and feed.duration.
func EmitFeedFetch(sink statsd.Sink, in FeedMetric) {
	if sink == nil {
		return
	}
	tags := resultTags(in.Err)
	tags["cache_hit"] = strconv.FormatBool(in.CacheHit)

	sink.Count("feed.fetch", 1, tags)
	if in.Duration > 0 {
		sink.Timing("feed.duration", in.Duration, CloneTags(tags))
	}
	if in.Err == nil {
		sink.Count("feed.components", int64(in.Components), nil)
	}
}

func resultTags(err error) map[string]string {
	if err == nil {
		return map[string]string{"result": ResultSuccess}
	}
	tags := map[string]string{"result": ResultError}
	if code := apperrors.GetCode(err); code != "" {
		tags["error_code"] = string(code)
	}
	if stage := apperrors.GetStage(err); stage != "" {
		tags["stage"] = string(stage)
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	return tags
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
