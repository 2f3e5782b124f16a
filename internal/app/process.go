package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Aidadev0831/AIDE-data-core/internal/classify"
	"github.com/Aidadev0831/AIDE-data-core/internal/cli"
	"github.com/Aidadev0831/AIDE-data-core/internal/cluster"
	"github.com/Aidadev0831/AIDE-data-core/internal/config"
	"github.com/Aidadev0831/AIDE-data-core/internal/db"
	"github.com/Aidadev0831/AIDE-data-core/internal/embedding"
	"github.com/Aidadev0831/AIDE-data-core/internal/logging"
	"github.com/Aidadev0831/AIDE-data-core/internal/pipeline"
	"github.com/Aidadev0831/AIDE-data-core/internal/representative"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")
	limit := fs.Int("limit", 100, "Maximum unprocessed articles per batch")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("process command failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	vectorizer := embedding.NewService(embedding.Options{
		Endpoint:       cfg.EmbeddingEndpoint,
		ModelName:      cfg.EmbeddingModelName,
		Dimensions:     cfg.EmbeddingDimensions,
		MaxLength:      cfg.EmbeddingMaxLength,
		RequestTimeout: cfg.EmbeddingRequestTimeout,
	}, logger)
	defer vectorizer.Close()

	grouper, err := cluster.NewGrouper(cfg.ClusterEps, cfg.ClusterMinSamples, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid clustering configuration: %v\n", err)
		return 1
	}

	selector, err := representative.NewSelector(
		cfg.InformationWeight,
		cfg.SourceReliabilityWeight,
		cfg.TrustedSourcesList(),
		logger,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid representative configuration: %v\n", err)
		return 1
	}

	classifier := classify.NewClient(classify.Options{
		Endpoint:       cfg.ClassifierEndpoint,
		APIKey:         cfg.ClassifierAPIKey,
		Model:          cfg.ClassifierModel,
		MaxTokens:      cfg.ClassifierMaxTokens,
		RequestTimeout: cfg.ClassifierRequestTimeout,
	}, logger)

	processor, err := pipeline.NewProcessor(
		db.NewArticleStore(pool, logger),
		vectorizer,
		grouper,
		selector,
		classifier,
		pipeline.Options{
			TitleWeight:       cfg.TitleWeight,
			DescriptionWeight: cfg.DescriptionWeight,
			ClassifyWorkers:   cfg.ClassifierWorkers,
		},
		logger,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	stats, err := processor.Run(ctx, *limit)
	if err != nil {
		logger.Error().
			Err(err).
			Str("run_id", stats.RunID).
			Int("errors", stats.Errors).
			Msg("process failed")
		fmt.Fprintf(os.Stderr, "Process failed: %v\n", err)
		fmt.Printf(
			"process run_id=%s fetched=%d embedded=%d deduplicated=%d representatives=%d classified=%d processed=%d errors=%d\n",
			stats.RunID, stats.Fetched, stats.Embedded, stats.Deduplicated,
			stats.Representatives, stats.Classified, stats.Processed, stats.Errors,
		)
		return 1
	}

	fmt.Printf(
		"process run_id=%s fetched=%d embedded=%d deduplicated=%d representatives=%d classified=%d processed=%d errors=%d\n",
		stats.RunID, stats.Fetched, stats.Embedded, stats.Deduplicated,
		stats.Representatives, stats.Classified, stats.Processed, stats.Errors,
	)
	return 0
}
