// Package api assembles the API module: domain systems, route registration,
// the OpenAPI document, and the module middleware stack.
package api

import (
	"net/http"

	"github.com/JaimeStill/tagline/internal/config"
	"github.com/JaimeStill/tagline/internal/infrastructure"
	"github.com/JaimeStill/tagline/pkg/middleware"
	"github.com/JaimeStill/tagline/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, runtime.HTTPMetrics.Middleware(mux))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))

	return m, nil
}
