// cmd/web/main.go
//
// formaction – HTTP entry point.
//
// Start-up
// --------
//
//  1. Load configuration (.env → conf/global.yaml → FORMACTION_ env, with
//     vault: references resolved).
//
//  2. Start the daily rotating logger (tees to console when running in a
//     TTY).
//
//  3. Open the configured user store and wrap it with error metrics.
//
//  4. Load form definitions, build the CSRF signer, and open the optional
//     GeoIP database.
//
//  5. Build the router: security headers → HTTPS redirect → request info →
//     request scope → components, plus /metrics and /healthz.
//
//  6. Serve until SIGINT or SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/config"
	"github.com/yanizio/formaction/internal/form"
	"github.com/yanizio/formaction/internal/logger"
	"github.com/yanizio/formaction/internal/requestinfo"
	"github.com/yanizio/formaction/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("formaction: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx, config.Options{})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logDir := cfg.Log.Dir
	if logDir != "" && !filepath.IsAbs(logDir) {
		logDir = filepath.Join(cfg.Paths.Root, logDir)
	}
	lg, err := logger.New(logDir, logger.IsTTY(), cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer lg.Sync() //nolint:errcheck

	//
	// ── 3.  User store ──────────────────────────────────────────────────
	//
	store, closeStore, err := openStore(ctx, cfg.Store, lg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	//
	// ── 4.  Forms, CSRF, GeoIP ──────────────────────────────────────────
	//
	forms := form.NewRegistry()
	if err := forms.Load(cfg.Forms.Dir); err != nil {
		return fmt.Errorf("load forms: %w", err)
	}
	lg.Info("forms loaded", zap.Int("count", forms.Len()), zap.String("dir", cfg.Forms.Dir))

	csrf, err := newCSRF(cfg.CSRF, lg)
	if err != nil {
		return err
	}

	var geo *requestinfo.GeoDB
	if cfg.GeoIP.DB != "" {
		geo, err = requestinfo.OpenGeo(cfg.GeoIP.DB)
		if err != nil {
			lg.Warn("geoip disabled", zap.String("db", cfg.GeoIP.DB), zap.Error(err))
		} else {
			defer geo.Close()
		}
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	router, err := newRouter(routerDeps{
		cfg:   cfg,
		log:   lg,
		forms: forms,
		csrf:  csrf,
		store: store,
		geo:   geo,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, router, cfg.Action.Timeout)
	return server.Run(ctx, srv, cfg.HTTP.ShutdownTimeout, lg)
}

// newCSRF decodes the configured key, or generates a per-process one.
func newCSRF(c config.CSRF, lg *zap.Logger) (*form.CSRF, error) {
	if c.Key == "" {
		lg.Warn("csrf.key not set; using a random per-process key (tokens die on restart)")
		return form.NewCSRF(form.RandomKey())
	}
	key, err := form.DecodeKey(c.Key)
	if err != nil {
		return nil, fmt.Errorf("csrf.key: %w", err)
	}
	return form.NewCSRF(key)
}
