package db

import (
	"encoding/json"
	"time"
)

// Article maps news.articles, the authoritative item store shared with the
// ingestion crawlers. This core reads new articles and writes back cluster
// metadata, the representative flag, and classification results.
type Article struct {
	ArticleID   int64   `gorm:"column:article_id;primaryKey;autoIncrement"`
	Title       string  `gorm:"column:title;type:text;not null"`
	Description string  `gorm:"column:description;type:text;not null;default:''"`
	Source      string  `gorm:"column:source;type:text;not null;default:''"`
	URL         *string `gorm:"column:url;type:text"`
	ContentHash string  `gorm:"column:content_hash;type:text;not null;default:''"`

	PublishedAt *time.Time `gorm:"column:published_at;type:timestamptz"`
	Status      string     `gorm:"column:status;type:text;not null;default:new;index"`

	ClusterID      *int `gorm:"column:cluster_id;type:integer"`
	ClusterSize    int  `gorm:"column:cluster_size;type:integer;not null;default:1"`
	Representative bool `gorm:"column:representative;type:boolean;not null;default:false"`

	Categories json.RawMessage `gorm:"column:categories;type:jsonb"`
	Tags       json.RawMessage `gorm:"column:tags;type:jsonb"`
	Confidence *int            `gorm:"column:confidence;type:integer"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "news.articles" }
