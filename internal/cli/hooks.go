package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks forwards observability events to the CLI logger. Everything logs
// at debug level, so --verbose turns the full request/cache trace on and a
// normal run stays quiet.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, elapsed time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path,
		"status", status, "elapsed", elapsed.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, namespace string) {
	h.logger.Debug("cache hit", "namespace", namespace)
}

func (h *logHooks) OnCacheMiss(_ context.Context, namespace string) {
	h.logger.Debug("cache miss", "namespace", namespace)
}

func (h *logHooks) OnCacheSet(_ context.Context, namespace string, size int) {
	h.logger.Debug("cache set", "namespace", namespace, "bytes", size)
}

func (h *logHooks) OnRunStart(_ context.Context, provider, runID string) {
	h.logger.Debug("run started", "provider", provider, "run", runID)
}

func (h *logHooks) OnResource(_ context.Context, provider, resource string, err error) {
	if err != nil {
		h.logger.Debug("resource failed", "provider", provider, "resource", resource, "err", err)
		return
	}
	h.logger.Debug("resource fetched", "provider", provider, "resource", resource)
}

func (h *logHooks) OnRunComplete(_ context.Context, provider, runID string, resources int, elapsed time.Duration, err error) {
	h.logger.Debug("run complete", "provider", provider, "run", runID,
		"resources", resources, "elapsed", elapsed.Round(time.Millisecond), "err", err)
}
