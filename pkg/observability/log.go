package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a charmbracelet logger at debug level.
// Failures are logged at warn. It implements all three hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnImportStart(_ context.Context, shape string) {
	h.logger.Debug("import started", "shape", shape)
}

func (h *LogHooks) OnImportComplete(_ context.Context, shape string, imported, warnings int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("import failed", "shape", shape, "err", err, "took", d)
		return
	}
	h.logger.Debug("import finished", "shape", shape, "imported", imported, "warnings", warnings, "took", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, kind string, memberCount int) {
	h.logger.Debug("layout started", "kind", kind, "members", memberCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, kind string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("layout failed", "kind", kind, "err", err, "took", d)
		return
	}
	h.logger.Debug("layout finished", "kind", kind, "took", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render started", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("render failed", "format", format, "err", err, "took", d)
		return
	}
	h.logger.Debug("render finished", "format", format, "bytes", size, "took", d)
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

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "path", path, "status", status, "took", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
