package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Environment:             "local",
		LogLevel:                "info",
		DatabaseURL:             "postgres://localhost:5432/aide",
		DBMinConns:              1,
		DBMaxConns:              8,
		EmbeddingDimensions:     768,
		EmbeddingMaxLength:      512,
		TitleWeight:             0.7,
		DescriptionWeight:       0.3,
		ClusterEps:              0.3,
		ClusterMinSamples:       2,
		InformationWeight:       0.5,
		SourceReliabilityWeight: 0.5,
		ClassifierMaxTokens:     1000,
		ClassifierWorkers:       4,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = " " }, want: "DATABASE_URL"},
		{name: "min conns above max", mutate: func(c *Config) { c.DBMinConns = 10 }, want: "AIDE_DB_MIN_CONNS"},
		{name: "zero dimensions", mutate: func(c *Config) { c.EmbeddingDimensions = 0 }, want: "EMBEDDING_DIMENSIONS"},
		{name: "negative title weight", mutate: func(c *Config) { c.TitleWeight = -0.1 }, want: "embedding weights"},
		{name: "both embedding weights zero", mutate: func(c *Config) { c.TitleWeight = 0; c.DescriptionWeight = 0 }, want: "EMBEDDING_TITLE_WEIGHT"},
		{name: "zero eps", mutate: func(c *Config) { c.ClusterEps = 0 }, want: "CLUSTER_EPS"},
		{name: "zero min samples", mutate: func(c *Config) { c.ClusterMinSamples = 0 }, want: "CLUSTER_MIN_SAMPLES"},
		{name: "both representative weights zero", mutate: func(c *Config) { c.InformationWeight = 0; c.SourceReliabilityWeight = 0 }, want: "REPRESENTATIVE_INFORMATION_WEIGHT"},
		{name: "zero classifier workers", mutate: func(c *Config) { c.ClassifierWorkers = 0 }, want: "CLASSIFIER_WORKERS"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestTrustedSourcesList(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.TrustedSources = " yonhap , chosun,, yonhap ,hankyung "
	sources := cfg.TrustedSourcesList()
	if len(sources) != 3 {
		t.Fatalf("expected 3 trusted sources, got %v", sources)
	}
	if sources[0] != "yonhap" || sources[1] != "chosun" || sources[2] != "hankyung" {
		t.Fatalf("unexpected trusted source list: %v", sources)
	}

	cfg.TrustedSources = ""
	if sources := cfg.TrustedSourcesList(); len(sources) != 0 {
		t.Fatalf("expected an empty list, got %v", sources)
	}
}
