package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"AIDE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"AIDE_DB_MAX_CONNS" default:"8"`

	EmbeddingEndpoint       string        `envconfig:"EMBEDDING_ENDPOINT" default:"http://127.0.0.1:8844/embed"`
	EmbeddingModelName      string        `envconfig:"EMBEDDING_MODEL_NAME" default:"ko-sroberta-multitask"`
	EmbeddingDimensions     int           `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	EmbeddingMaxLength      int           `envconfig:"EMBEDDING_MAX_LENGTH" default:"512"`
	EmbeddingRequestTimeout time.Duration `envconfig:"EMBEDDING_REQUEST_TIMEOUT" default:"45s"`
	TitleWeight             float64       `envconfig:"EMBEDDING_TITLE_WEIGHT" default:"0.7"`
	DescriptionWeight       float64       `envconfig:"EMBEDDING_DESCRIPTION_WEIGHT" default:"0.3"`

	ClusterEps        float64 `envconfig:"CLUSTER_EPS" default:"0.3"`
	ClusterMinSamples int     `envconfig:"CLUSTER_MIN_SAMPLES" default:"2"`

	InformationWeight       float64 `envconfig:"REPRESENTATIVE_INFORMATION_WEIGHT" default:"0.5"`
	SourceReliabilityWeight float64 `envconfig:"REPRESENTATIVE_SOURCE_WEIGHT" default:"0.5"`
	TrustedSources          string  `envconfig:"TRUSTED_SOURCES" default:""`

	ClassifierEndpoint       string        `envconfig:"CLASSIFIER_ENDPOINT" default:"https://api.anthropic.com/v1/messages"`
	ClassifierAPIKey         string        `envconfig:"CLASSIFIER_API_KEY" default:""`
	ClassifierModel          string        `envconfig:"CLASSIFIER_MODEL" default:"claude-3-5-sonnet-20241022"`
	ClassifierMaxTokens      int           `envconfig:"CLASSIFIER_MAX_TOKENS" default:"1000"`
	ClassifierRequestTimeout time.Duration `envconfig:"CLASSIFIER_REQUEST_TIMEOUT" default:"30s"`
	ClassifierWorkers        int           `envconfig:"CLASSIFIER_WORKERS" default:"4"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("AIDE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("AIDE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("AIDE_DB_MIN_CONNS (%d) cannot exceed AIDE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EmbeddingDimensions < 1 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be >= 1")
	}
	if c.EmbeddingMaxLength < 1 {
		return fmt.Errorf("EMBEDDING_MAX_LENGTH must be >= 1")
	}
	if c.TitleWeight < 0 || c.DescriptionWeight < 0 {
		return fmt.Errorf("embedding weights must not be negative")
	}
	if c.TitleWeight == 0 && c.DescriptionWeight == 0 {
		return fmt.Errorf("EMBEDDING_TITLE_WEIGHT and EMBEDDING_DESCRIPTION_WEIGHT must not both be zero")
	}
	if c.ClusterEps <= 0 {
		return fmt.Errorf("CLUSTER_EPS must be > 0")
	}
	if c.ClusterMinSamples < 1 {
		return fmt.Errorf("CLUSTER_MIN_SAMPLES must be >= 1")
	}
	if c.InformationWeight < 0 || c.SourceReliabilityWeight < 0 {
		return fmt.Errorf("representative weights must not be negative")
	}
	if c.InformationWeight == 0 && c.SourceReliabilityWeight == 0 {
		return fmt.Errorf("REPRESENTATIVE_INFORMATION_WEIGHT and REPRESENTATIVE_SOURCE_WEIGHT must not both be zero")
	}
	if c.ClassifierMaxTokens < 1 {
		return fmt.Errorf("CLASSIFIER_MAX_TOKENS must be >= 1")
	}
	if c.ClassifierWorkers < 1 {
		return fmt.Errorf("CLASSIFIER_WORKERS must be >= 1")
	}
	return nil
}

func (c *Config) TrustedSourcesList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.TrustedSources, ",")
	sources := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		source := strings.TrimSpace(part)
		if source == "" {
			continue
		}
		if _, exists := seen[source]; exists {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}
