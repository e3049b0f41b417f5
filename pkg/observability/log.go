package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level, errors at warn.
// It implements ViewHooks, CacheHooks and HTTPHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to l, or to log.Default() if l is nil.
func NewLogHooks(l *log.Logger) *LogHooks {
	if l == nil {
		l = log.Default()
	}
	return &LogHooks{logger: l}
}

func (h *LogHooks) OnLayoutStart(_ context.Context, view string, nodeCount int) {
	h.logger.Debug("layout started", "view", view, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, view string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("layout failed", "view", view, "duration", d, "err", err)
		return
	}
	h.logger.Debug("layout done", "view", view, "duration", d)
}

func (h *LogHooks) OnRender(_ context.Context, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render abandoned", "duration", d, "err", err)
		return
	}
	h.logger.Debug("rendered views", "nodes", nodes, "edges", edges, "duration", d)
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

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("request failed", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ ViewHooks  = (*LogHooks)(nil)
	_ CacheHooks = (*LogHooks)(nil)
	_ HTTPHooks  = (*LogHooks)(nil)
)
