package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Aidadev0831/AIDE-data-core/internal/classify"
	"github.com/Aidadev0831/AIDE-data-core/internal/embedding"
)

// Article lifecycle statuses in the item store.
const (
	StatusNew            = "new"
	StatusClustered      = "clustered"
	StatusRepresentative = "representative"
	StatusProcessed      = "processed"
)

// Item is one article as seen by the pipeline: validated and cleaned once at
// the store boundary, so the stages never guard against missing fields.
type Item struct {
	ID          int64
	Title       string
	Description string
	Source      string
	PublishedAt *time.Time
	Status      string
}

// ItemUpdate is the per-item result written back after a run.
type ItemUpdate struct {
	ID             int64
	ClusterID      *int
	ClusterSize    int
	Representative bool
	Status         string
	Classification *classify.Result
}

// ArticleStore is the persistent item store. The real implementation lives in
// internal/db; tests substitute fakes.
type ArticleStore interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]Item, error)
	PersistBatch(ctx context.Context, updates []ItemUpdate) (int, error)
}

// Vectorizer turns text pairs into one normalized row vector per item.
type Vectorizer interface {
	EmbedArticles(ctx context.Context, pairs []embedding.Pair, titleWeight, descriptionWeight float64) (*mat.Dense, error)
}

// Grouper partitions vectors into clusters and outliers.
type Grouper interface {
	Cluster(vectors mat.Matrix) ([]int, error)
}

// Classifier labels one representative. Injected so tests can substitute a
// deterministic stub for the network client.
type Classifier interface {
	Classify(ctx context.Context, title, description string) (classify.Result, error)
}
