// internal/component/registry.go
//
// Component mounting.
//
// Each concrete component lives under components/<name>, is constructed by
// cmd/web with its dependencies, and is mounted under "/<name>".  A
// component's Routes() should carry BOTH page and API endpoints, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/", page)
//	r.Post("/api", api)
//	return r

package component

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Component contract.
type Component interface {
	Name() string
	Routes() chi.Router
}

// Mount attaches every component under "/<name>".  Duplicate names are an
// error so two components can never shadow each other's routes.
func Mount(r chi.Router, log *zap.Logger, cs ...Component) error {
	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		name := c.Name()
		if name == "" {
			return fmt.Errorf("component: empty name")
		}
		if seen[name] {
			return fmt.Errorf("component: duplicate name %q", name)
		}
		seen[name] = true
		r.Mount("/"+name, c.Routes())
		log.Debug("component mounted", zap.String("component", name))
	}
	return nil
}
