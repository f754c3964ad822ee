package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// LogHooks reports every event to a logger at debug level. Skipped trace
// lines are rate limited: a corrupt trace can skip millions.
type LogHooks struct {
	logger      *log.Logger
	skipLimiter *rate.Limiter
}

// NewLogHooks returns hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{
		logger:      l,
		skipLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

func (h *LogHooks) OnIngestStart(_ context.Context, location string) {
	h.logger.Debug("ingest start", "location", location)
}

func (h *LogHooks) OnLineSkipped(_ context.Context, location string, lineNo int, err error) {
	if h.skipLimiter.Allow() {
		h.logger.Warn("skipped trace line", "location", location, "line", lineNo, "err", err)
	}
}

func (h *LogHooks) OnIngestComplete(_ context.Context, location string, nodes, edges, skipped int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("ingest failed", "location", location, "err", err)
		return
	}
	h.logger.Debug("ingest done", "location", location, "nodes", nodes, "edges", edges, "skipped", skipped, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnLayoutStart(_ context.Context, strategy string, nodeCount int) {
	h.logger.Debug("layout start", "strategy", strategy, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, strategy string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("layout failed", "strategy", strategy, "err", err)
		return
	}
	h.logger.Debug("layout done", "strategy", strategy, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("render failed", "formats", formats, "err", err)
		return
	}
	h.logger.Debug("render done", "formats", formats, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Info("request", "method", method, "route", route, "status", status, "took", d.Round(time.Microsecond))
}

func (h *LogHooks) OnReload(_ context.Context, nodes, edges int, err error) {
	if err != nil {
		h.logger.Error("reload failed", "err", err)
		return
	}
	h.logger.Info("graph reloaded", "nodes", nodes, "edges", edges)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
