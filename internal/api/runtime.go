package api

import (
	"fmt"

	"github.com/JaimeStill/tagline/internal/config"
	"github.com/JaimeStill/tagline/internal/infrastructure"
	"github.com/JaimeStill/tagline/pkg/metrics"
	"github.com/JaimeStill/tagline/pkg/pagination"
)

// metricsNamespace prefixes every collector the API registers.
const metricsNamespace = "tagline"

// Runtime extends Infrastructure with API-specific configuration and the
// collectors the API registers on the shared registry.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	Labeling      config.LabelingConfig
	HTTPMetrics   *metrics.HTTPMetrics
	LedgerMetrics *metrics.OperationMetrics
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	httpMetrics, err := metrics.NewHTTPMetrics(infra.Metrics, metricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	ledgerMetrics, err := metrics.NewOperationMetrics(infra.Metrics, metricsNamespace, "ledger")
	if err != nil {
		return nil, fmt.Errorf("register ledger metrics: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Metrics:   infra.Metrics,
		},
		Pagination:    cfg.API.Pagination,
		Labeling:      cfg.Labeling,
		HTTPMetrics:   httpMetrics,
		LedgerMetrics: ledgerMetrics,
	}, nil
}
