package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

const (
	EnvLabelingBatchConcurrency  = "TAGLINE_LABELING_BATCH_CONCURRENCY"
	EnvLabelingHierarchyCacheTTL = "TAGLINE_LABELING_HIERARCHY_CACHE_TTL"
	EnvLabelingDefaultColor      = "TAGLINE_LABELING_DEFAULT_COLOR"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LabelingConfig tunes the label catalog and the assignment ledger.
type LabelingConfig struct {
	BatchConcurrency  int    `toml:"batch_concurrency"`
	HierarchyCacheTTL string `toml:"hierarchy_cache_ttl"`
	DefaultLabelColor string `toml:"default_label_color"`
}

// HierarchyCacheTTLDuration returns HierarchyCacheTTL as a time.Duration.
func (c *LabelingConfig) HierarchyCacheTTLDuration() time.Duration {
	return mustDuration(c.HierarchyCacheTTL)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LabelingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LabelingConfig) Merge(overlay *LabelingConfig) {
	if overlay.BatchConcurrency != 0 {
		c.BatchConcurrency = overlay.BatchConcurrency
	}
	if overlay.HierarchyCacheTTL != "" {
		c.HierarchyCacheTTL = overlay.HierarchyCacheTTL
	}
	if overlay.DefaultLabelColor != "" {
		c.DefaultLabelColor = overlay.DefaultLabelColor
	}
}

func (c *LabelingConfig) loadDefaults() {
	if c.BatchConcurrency == 0 {
		c.BatchConcurrency = 4
	}
	if c.HierarchyCacheTTL == "" {
		c.HierarchyCacheTTL = "5m"
	}
	if c.DefaultLabelColor == "" {
		c.DefaultLabelColor = "#3B82F6"
	}
}

func (c *LabelingConfig) loadEnv() {
	if v := os.Getenv(EnvLabelingBatchConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchConcurrency = n
		}
	}
	if v := os.Getenv(EnvLabelingHierarchyCacheTTL); v != "" {
		c.HierarchyCacheTTL = v
	}
	if v := os.Getenv(EnvLabelingDefaultColor); v != "" {
		c.DefaultLabelColor = v
	}
}

func (c *LabelingConfig) validate() error {
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be positive")
	}
	if d, err := time.ParseDuration(c.HierarchyCacheTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid hierarchy_cache_ttl: %q", c.HierarchyCacheTTL)
	}
	if !hexColor.MatchString(c.DefaultLabelColor) {
		return fmt.Errorf("default_label_color must be #RRGGBB: %q", c.DefaultLabelColor)
	}
	return nil
}
