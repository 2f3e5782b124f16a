package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Aidadev0831/AIDE-data-core/internal/cli"
	"github.com/Aidadev0831/AIDE-data-core/internal/config"
	"github.com/Aidadev0831/AIDE-data-core/internal/db"
	"github.com/Aidadev0831/AIDE-data-core/internal/logging"
)

// backfill computes content hashes for rows that predate hash-at-ingest.
func runBackfill(args []string) int {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	limit := fs.Int("limit", 500, "Maximum articles to backfill")

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
		logger.Error().Err(err).Msg("backfill command failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	store := db.NewArticleStore(pool, logger)
	updated, err := store.RefreshContentHashes(ctx, *limit)
	if err != nil {
		logger.Error().Err(err).Msg("content hash backfill failed")
		fmt.Fprintf(os.Stderr, "Backfill failed: %v\n", err)
		return 1
	}

	fmt.Printf("backfill updated=%d limit=%d\n", updated, *limit)
	return 0
}
