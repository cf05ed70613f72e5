package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/tagline/internal/assignments"
	"github.com/JaimeStill/tagline/internal/config"
	"github.com/JaimeStill/tagline/internal/datasets"
	"github.com/JaimeStill/tagline/internal/labels"
	"github.com/JaimeStill/tagline/internal/workspace"
	"github.com/JaimeStill/tagline/pkg/openapi"
	"github.com/JaimeStill/tagline/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) error {
	groups := []routes.Group{
		domain.Datasets.Handler(cfg.API.MaxUploadSize.Int64()).Routes(),
		domain.Labels.Handler().Routes(),
		domain.Assignments.Handler().Routes(),
		domain.Workspace.Handler().Routes(),
	}

	routes.Register(mux, groups...)

	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	return nil
}

// buildSpec renders the OpenAPI document for groups once at startup.
func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	for _, schemas := range []map[string]*openapi.Schema{
		datasets.Schemas(),
		labels.Schemas(),
		assignments.Schemas(),
		workspace.Schemas(),
	} {
		spec.Components.AddSchemas(schemas)
	}

	if err := routes.Describe(spec, "", groups...); err != nil {
		return nil, fmt.Errorf("describe routes: %w", err)
	}

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi: %w", err)
	}
	return data, nil
}
