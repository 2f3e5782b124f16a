package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Aidadev0831/AIDE-data-core/internal/cli"
	"github.com/Aidadev0831/AIDE-data-core/internal/cluster"
	"github.com/Aidadev0831/AIDE-data-core/internal/config"
	"github.com/Aidadev0831/AIDE-data-core/internal/db"
	"github.com/Aidadev0831/AIDE-data-core/internal/embedding"
	"github.com/Aidadev0831/AIDE-data-core/internal/logging"
)

// inspect embeds and clusters a batch without persisting anything, then
// prints per-cluster diagnostics and near-duplicate pairs for operator
// review of eps/min-samples settings.
func runInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	limit := fs.Int("limit", 100, "Maximum unprocessed articles to inspect")
	pairThreshold := fs.Float64("pair-threshold", 0.3, "Cosine distance threshold for near-duplicate pairs")

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
	if *pairThreshold <= 0 {
		fmt.Fprintln(os.Stderr, "--pair-threshold must be > 0")
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
		logger.Error().Err(err).Msg("inspect command failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	store := db.NewArticleStore(pool, logger)
	items, err := store.FetchUnprocessed(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		return 1
	}
	if len(items) == 0 {
		fmt.Println("inspect: no unprocessed articles")
		return 0
	}

	vectorizer := embedding.NewService(embedding.Options{
		Endpoint:       cfg.EmbeddingEndpoint,
		ModelName:      cfg.EmbeddingModelName,
		Dimensions:     cfg.EmbeddingDimensions,
		MaxLength:      cfg.EmbeddingMaxLength,
		RequestTimeout: cfg.EmbeddingRequestTimeout,
	}, logger)
	defer vectorizer.Close()

	pairs := make([]embedding.Pair, len(items))
	for i, item := range items {
		pairs[i] = embedding.Pair{Title: item.Title, Description: item.Description}
	}
	vectors, err := vectorizer.EmbedArticles(ctx, pairs, cfg.TitleWeight, cfg.DescriptionWeight)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embed failed: %v\n", err)
		return 1
	}

	grouper, err := cluster.NewGrouper(cfg.ClusterEps, cfg.ClusterMinSamples, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid clustering configuration: %v\n", err)
		return 1
	}
	assignments, err := grouper.Cluster(vectors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cluster failed: %v\n", err)
		return 1
	}

	infos := cluster.Infos(vectors, assignments)
	clusterIDs := make([]int, 0, len(infos))
	for id := range infos {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	outliers := 0
	for _, id := range assignments {
		if id == cluster.Outlier {
			outliers++
		}
	}

	fmt.Printf("inspect articles=%d clusters=%d outliers=%d eps=%.3f min_samples=%d\n",
		len(items), len(infos), outliers, cfg.ClusterEps, cfg.ClusterMinSamples)
	for _, id := range clusterIDs {
		info := infos[id]
		fmt.Printf("cluster %d: size=%d avg_distance=%.4f\n", id, info.Size, info.AvgDistance)
		for _, idx := range info.Indices {
			fmt.Printf("  [%d] %s (%s)\n", items[idx].ID, items[idx].Title, items[idx].Source)
		}
	}

	near := cluster.SimilarPairs(vectors, *pairThreshold)
	fmt.Printf("near pairs (distance < %.3f): %d\n", *pairThreshold, len(near))
	for _, pair := range near {
		fmt.Printf("  [%d] ~ [%d] distance=%.4f\n", items[pair.I].ID, items[pair.J].ID, pair.Distance)
	}

	return 0
}
