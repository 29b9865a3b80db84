// internal/server/server.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadHeaderTimeout – abort slow-loris headers (10 s)
//   • WriteTimeout      – cap total response time (action timeout + 5 s)
//   • IdleTimeout       – close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/web doesn’t repeat
// boilerplate, and Run ties the listener to a context for graceful
// shutdown.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
	writeSlack        = 5 * time.Second
)

// New constructs an *http.Server with sensible defaults.  actionTimeout is
// the longest a handler may run; the write deadline sits a little past it so
// a timed-out action still gets to send its envelope.
func New(addr string, handler http.Handler, actionTimeout time.Duration) *http.Server {
	if actionTimeout <= 0 {
		actionTimeout = 10 * time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readHeaderTimeout + actionTimeout,
		WriteTimeout:      actionTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
	}
}

// Run serves srv until ctx is cancelled, then shuts down, allowing
// in-flight requests up to grace to finish.
func Run(ctx context.Context, srv *http.Server, grace time.Duration, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
		defer cancel()
		log.Info("http shutting down", zap.Duration("grace", grace))
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
