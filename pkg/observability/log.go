package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. Failed refreshes
// and layouts are logged as warnings.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

// Install registers h in every registry slot.
func (h *LogHooks) Install() {
	SetRenderHooks(h)
	SetLayoutHooks(h)
	SetCacheHooks(h)
	SetServerHooks(h)
}

func (h *LogHooks) OnRefresh(nodes, edges int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Warn("refresh failed", "nodes", nodes, "edges", edges, "error", err)
		return
	}
	h.logger.Debug("refresh", "nodes", nodes, "edges", edges, "duration", duration)
}

func (h *LogHooks) OnFrame(duration time.Duration, moving bool) {
	h.logger.Debug("frame", "duration", duration, "moving", moving)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, algorithm string, nodeCount int) {
	h.logger.Debug("layout start", "algorithm", algorithm, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutBatch(_ context.Context, algorithm string, iterations int, duration time.Duration) {
	h.logger.Debug("layout batch", "algorithm", algorithm, "iterations", iterations, "duration", duration)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, algorithm string, duration time.Duration, err error) {
	if err != nil && err != context.Canceled {
		h.logger.Warn("layout stopped", "algorithm", algorithm, "duration", duration, "error", err)
		return
	}
	h.logger.Debug("layout complete", "algorithm", algorithm, "duration", duration)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, duration time.Duration) {
	h.logger.Debug("request", "method", method, "route", route, "status", status, "duration", duration)
}

var (
	_ RenderHooks = (*LogHooks)(nil)
	_ LayoutHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ ServerHooks = (*LogHooks)(nil)
)
