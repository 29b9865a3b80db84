// internal/core/context.go
//
// Central per-request context.
//
// Context
// -------
// The Scope middleware builds one *core.Context per request and stores it
// in the request's context.Context.  Handlers read it back with
// FromContext.  It bundles:
//
//   - RequestID – caller-supplied X-Request-ID or a fresh UUID.
//   - Log       – the process logger scoped with request_id, method, and path.
//   - Info      – parsed UA, client IP, geo, and timestamp.
//
// Nothing here is global.  Two requests never share a Context.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/requestinfo"
)

// Context is the per-request bundle.
type Context struct {
	RequestID string
	Log       *zap.Logger
	Info      *requestinfo.RequestInfo
}

type ctxKey struct{}

// WithContext returns ctx carrying c.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the request's Context.  Outside a request (tests, the
// CLI) it returns a Context with the global logger and no ID.
func FromContext(ctx context.Context) *Context {
	if c, ok := ctx.Value(ctxKey{}).(*Context); ok && c != nil {
		return c
	}
	return &Context{Log: zap.L()}
}
