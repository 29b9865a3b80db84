package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/components/users"
	"github.com/yanizio/formaction/internal/action"
	"github.com/yanizio/formaction/internal/component"
	"github.com/yanizio/formaction/internal/config"
	"github.com/yanizio/formaction/internal/form"
	"github.com/yanizio/formaction/internal/metrics"
	"github.com/yanizio/formaction/internal/middleware"
	"github.com/yanizio/formaction/internal/requestinfo"
	"github.com/yanizio/formaction/internal/user"
)

type routerDeps struct {
	cfg   *config.Config
	log   *zap.Logger
	forms *form.Registry
	csrf  *form.CSRF
	store user.Store
	geo   *requestinfo.GeoDB
}

func newRouter(d routerDeps) (http.Handler, error) {
	actOpts := []action.Option{
		action.WithLogger(d.log),
		action.WithObserver(metrics.ActionObserver{}),
	}
	if d.cfg.Action.Timeout > 0 {
		actOpts = append(actOpts, action.WithTimeout(d.cfg.Action.Timeout))
	}

	usersComp, err := users.New(d.forms, d.csrf, d.store, actOpts...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)
	if d.cfg.HTTP.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	r.Use(requestinfo.Enrich(d.geo))
	r.Use(middleware.Scope(d.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/users/new", http.StatusFound)
	})

	if err := component.Mount(r, d.log, usersComp); err != nil {
		return nil, err
	}
	return r, nil
}
