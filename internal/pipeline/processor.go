// Package pipeline drives one batch of new articles through embedding,
// density clustering, representative selection, classification, and
// persistence, collecting run statistics along the way.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Aidadev0831/AIDE-data-core/internal/classify"
	"github.com/Aidadev0831/AIDE-data-core/internal/cluster"
	"github.com/Aidadev0831/AIDE-data-core/internal/embedding"
	"github.com/Aidadev0831/AIDE-data-core/internal/representative"
)

const DefaultClassifyWorkers = 4

// Stats is the per-run statistics record. It is always returned to the
// caller, aborted runs included.
type Stats struct {
	RunID           string
	Fetched         int
	Embedded        int
	Deduplicated    int
	Representatives int
	Classified      int
	Processed       int
	Errors          int
}

type Options struct {
	TitleWeight       float64
	DescriptionWeight float64
	ClassifyWorkers   int
}

// Processor is the batch orchestrator. One Run is a single sequential batch;
// concurrent runs over overlapping item sets must be serialized externally.
type Processor struct {
	store      ArticleStore
	vectorizer Vectorizer
	grouper    Grouper
	selector   *representative.Selector
	classifier Classifier
	opts       Options
	logger     zerolog.Logger
}

func NewProcessor(
	store ArticleStore,
	vectorizer Vectorizer,
	grouper Grouper,
	selector *representative.Selector,
	classifier Classifier,
	opts Options,
	logger zerolog.Logger,
) (*Processor, error) {
	if store == nil {
		return nil, fmt.Errorf("article store is required")
	}
	if vectorizer == nil {
		return nil, fmt.Errorf("vectorizer is required")
	}
	if grouper == nil {
		return nil, fmt.Errorf("grouper is required")
	}
	if selector == nil {
		return nil, fmt.Errorf("representative selector is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if opts.TitleWeight < 0 || opts.DescriptionWeight < 0 {
		return nil, fmt.Errorf("embedding weights must not be negative")
	}
	if opts.TitleWeight == 0 && opts.DescriptionWeight == 0 {
		return nil, fmt.Errorf("embedding weights must not both be zero")
	}
	if opts.ClassifyWorkers <= 0 {
		opts.ClassifyWorkers = DefaultClassifyWorkers
	}

	return &Processor{
		store:      store,
		vectorizer: vectorizer,
		grouper:    grouper,
		selector:   selector,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Run processes one batch of up to limit unprocessed articles. Fetch, embed,
// cluster, and select stage failures abort the run and are surfaced with the
// accumulated statistics; classification failures degrade per representative
// to the fixed fallback and never abort.
func (p *Processor) Run(ctx context.Context, limit int) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}
	logger := p.logger.With().Str("run_id", stats.RunID).Logger()

	items, err := p.store.FetchUnprocessed(ctx, limit)
	if err != nil {
		stats.Errors++
		return stats, fmt.Errorf("fetch stage (limit=%d): %w", limit, err)
	}
	stats.Fetched = len(items)
	if len(items) == 0 {
		logger.Info().Msg("no unprocessed articles")
		return stats, nil
	}
	logger.Info().Int("fetched", len(items)).Msg("fetched unprocessed articles")

	pairs := make([]embedding.Pair, len(items))
	for i, item := range items {
		pairs[i] = embedding.Pair{Title: item.Title, Description: item.Description}
	}
	vectors, err := p.vectorizer.EmbedArticles(ctx, pairs, p.opts.TitleWeight, p.opts.DescriptionWeight)
	if err != nil {
		stats.Errors++
		return stats, fmt.Errorf("embed stage (batch=%d): %w", len(items), err)
	}
	embedded, _ := vectors.Dims()
	stats.Embedded = embedded

	assignments, err := p.grouper.Cluster(vectors)
	if err != nil {
		stats.Errors++
		return stats, fmt.Errorf("cluster stage (batch=%d): %w", len(items), err)
	}
	clusterSizes := make(map[int]int)
	for _, id := range assignments {
		if id != cluster.Outlier {
			stats.Deduplicated++
			clusterSizes[id]++
		}
	}

	candidates := make([]representative.Candidate, len(items))
	for i, item := range items {
		candidates[i] = representative.Candidate{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Source:      item.Source,
		}
	}
	representatives, err := p.selector.SelectFromClusters(candidates, assignments)
	if err != nil {
		stats.Errors++
		return stats, fmt.Errorf("select stage (batch=%d): %w", len(items), err)
	}
	stats.Representatives = len(representatives)

	classifications := p.classifyRepresentatives(ctx, logger, representatives)
	stats.Classified = len(classifications)

	updates := buildUpdates(items, assignments, clusterSizes, representatives, classifications)
	processed, err := p.store.PersistBatch(ctx, updates)
	if err != nil {
		stats.Errors++
		return stats, fmt.Errorf("persist stage (batch=%d): %w", len(items), err)
	}
	stats.Processed = processed

	logger.Info().
		Int("fetched", stats.Fetched).
		Int("embedded", stats.Embedded).
		Int("deduplicated", stats.Deduplicated).
		Int("representatives", stats.Representatives).
		Int("classified", stats.Classified).
		Int("processed", stats.Processed).
		Msg("pipeline run complete")
	return stats, nil
}

// classifyRepresentatives labels every cluster representative through a
// bounded worker pool. A failed call logs and substitutes the fixed fallback;
// it never fails the run.
func (p *Processor) classifyRepresentatives(
	ctx context.Context,
	logger zerolog.Logger,
	representatives map[int]representative.Candidate,
) map[int]classify.Result {
	results := make(map[int]classify.Result, len(representatives))
	if len(representatives) == 0 {
		return results
	}

	clusterIDs := make([]int, 0, len(representatives))
	for id := range representatives {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(p.opts.ClassifyWorkers)

	for _, clusterID := range clusterIDs {
		clusterID := clusterID
		rep := representatives[clusterID]
		g.Go(func() error {
			result, err := p.classifier.Classify(ctx, rep.Title, rep.Description)
			if err != nil {
				logger.Warn().
					Err(err).
					Int("cluster_id", clusterID).
					Int64("article_id", rep.ID).
					Msg("classification failed, using fallback")
				result = classify.Fallback()
			}
			mu.Lock()
			results[clusterID] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func buildUpdates(
	items []Item,
	assignments []int,
	clusterSizes map[int]int,
	representatives map[int]representative.Candidate,
	classifications map[int]classify.Result,
) []ItemUpdate {
	updates := make([]ItemUpdate, len(items))
	for i, item := range items {
		update := ItemUpdate{
			ID:     item.ID,
			Status: StatusProcessed,
		}

		clusterID := assignments[i]
		if clusterID == cluster.Outlier {
			update.ClusterSize = 1
			update.Representative = true
		} else {
			id := clusterID
			update.ClusterID = &id
			update.ClusterSize = clusterSizes[clusterID]
			if rep, ok := representatives[clusterID]; ok && rep.ID == item.ID {
				update.Representative = true
				if result, ok := classifications[clusterID]; ok {
					resultCopy := result
					update.Classification = &resultCopy
				}
			}
		}

		updates[i] = update
	}
	return updates
}
