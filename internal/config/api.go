package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/tagline/pkg/formatting"
	"github.com/JaimeStill/tagline/pkg/middleware"
	"github.com/JaimeStill/tagline/pkg/openapi"
	"github.com/JaimeStill/tagline/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TAGLINE_CORS_ENABLED",
	Origins:          "TAGLINE_CORS_ORIGINS",
	AllowedMethods:   "TAGLINE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TAGLINE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "TAGLINE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TAGLINE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "TAGLINE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TAGLINE_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.Env{
	Title:       "TAGLINE_OPENAPI_TITLE",
	Description: "TAGLINE_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, upload limits, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize formatting.ByteSize   `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != 0 {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 32 << 20
	}
}

func (c *APIConfig) loadEnv() error {
	if v := os.Getenv("TAGLINE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("TAGLINE_API_MAX_UPLOAD_SIZE"); v != "" {
		if err := c.MaxUploadSize.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid max_upload_size: %w", err)
		}
	}
	return nil
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.HasSuffix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with / and not end with /: %q", c.BasePath)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
