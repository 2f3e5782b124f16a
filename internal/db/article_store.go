package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Aidadev0831/AIDE-data-core/internal/globaltime"
	"github.com/Aidadev0831/AIDE-data-core/internal/pipeline"
	"github.com/Aidadev0831/AIDE-data-core/internal/textnorm"
)

// ArticleStore implements pipeline.ArticleStore over the news.articles table.
type ArticleStore struct {
	pool   *Pool
	logger zerolog.Logger
}

func NewArticleStore(pool *Pool, logger zerolog.Logger) *ArticleStore {
	return &ArticleStore{
		pool:   pool,
		logger: logger,
	}
}

// FetchUnprocessed returns up to limit articles with status=new in article id
// order. Titles and descriptions are cleaned here, once, at the store
// boundary.
func (s *ArticleStore) FetchUnprocessed(ctx context.Context, limit int) ([]pipeline.Item, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("article store is not initialized")
	}
	if limit <= 0 {
		return nil, nil
	}

	var rows []Article
	err := s.pool.GORM().WithContext(ctx).
		Where("status = ?", pipeline.StatusNew).
		Order("article_id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select unprocessed articles: %w", err)
	}

	items := make([]pipeline.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, pipeline.Item{
			ID:          row.ArticleID,
			Title:       textnorm.Clean(row.Title),
			Description: textnorm.Clean(row.Description),
			Source:      row.Source,
			PublishedAt: row.PublishedAt,
			Status:      row.Status,
		})
	}
	return items, nil
}

// PersistBatch writes all run results in one transaction and returns the
// number of articles updated.
func (s *ArticleStore) PersistBatch(ctx context.Context, updates []pipeline.ItemUpdate) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("article store is not initialized")
	}
	if len(updates) == 0 {
		return 0, nil
	}

	now := globaltime.UTC()
	updated := 0
	err := s.pool.GORM().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, update := range updates {
			fields := map[string]any{
				"cluster_id":     update.ClusterID,
				"cluster_size":   update.ClusterSize,
				"representative": update.Representative,
				"status":         update.Status,
				"updated_at":     now,
			}
			if update.Classification != nil {
				categoriesJSON, err := json.Marshal(update.Classification.Categories)
				if err != nil {
					return fmt.Errorf("marshal categories article_id=%d: %w", update.ID, err)
				}
				tagsJSON, err := json.Marshal(update.Classification.Tags)
				if err != nil {
					return fmt.Errorf("marshal tags article_id=%d: %w", update.ID, err)
				}
				confidence := update.Classification.Confidence
				fields["categories"] = json.RawMessage(categoriesJSON)
				fields["tags"] = json.RawMessage(tagsJSON)
				fields["confidence"] = &confidence
			}

			result := tx.Model(&Article{}).
				Where("article_id = ?", update.ID).
				Updates(fields)
			if result.Error != nil {
				return fmt.Errorf("update article_id=%d: %w", update.ID, result.Error)
			}
			if result.RowsAffected == 1 {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Int("requested", len(updates)).
		Int("updated", updated).
		Msg("persisted batch results")
	return updated, nil
}

// RefreshContentHashes backfills the exact-duplicate key for articles missing
// one; the ingestion side normally writes it, older rows may predate it.
func (s *ArticleStore) RefreshContentHashes(ctx context.Context, limit int) (int, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("article store is not initialized")
	}
	if limit <= 0 {
		return 0, nil
	}

	var rows []Article
	err := s.pool.GORM().WithContext(ctx).
		Where("content_hash = ''").
		Order("article_id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("select articles without content hash: %w", err)
	}

	now := globaltime.UTC()
	updated := 0
	for _, row := range rows {
		hash := textnorm.ContentHash(textnorm.Clean(row.Title), textnorm.Clean(row.Description))
		result := s.pool.GORM().WithContext(ctx).
			Model(&Article{}).
			Where("article_id = ?", row.ArticleID).
			Updates(map[string]any{"content_hash": hash, "updated_at": now})
		if result.Error != nil {
			return updated, fmt.Errorf("update content hash article_id=%d: %w", row.ArticleID, result.Error)
		}
		if result.RowsAffected == 1 {
			updated++
		}
	}
	return updated, nil
}
