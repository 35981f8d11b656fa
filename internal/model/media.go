package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// 媒体类型
const (
	MediaTypeMovie  = "movie"
	MediaTypeTVShow = "tv_show"
)

// Media 影视条目
type Media struct {
	ID            int              `json:"id" db:"id"`
	Title         string           `json:"title" db:"title"`
	OriginalTitle string           `json:"original_title" db:"original_title"`
	Description   string           `json:"description" db:"description"`
	Type          string           `json:"type" db:"type" gorm:"index"`
	Link          string           `json:"link" db:"link"`
	Poster        string           `json:"poster" db:"poster"`
	Year          string           `json:"year" db:"year"`
	Duration      float64          `json:"duration" db:"duration"`
	RatingAvg     float64          `json:"rating_avg" db:"rating_avg"`
	RatingCount   int              `json:"rating_count" db:"rating_count"`
	Embedding     *pgvector.Vector `json:"-" db:"embedding" gorm:"type:vector(768)"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at" gorm:"index"`

	Genres   []*Genre   `json:"genres,omitempty" gorm:"many2many:media_genres"`
	Episodes []*Episode `json:"episodes,omitempty"`
}

// IsTVShow 是否剧集类型
func (m *Media) IsTVShow() bool {
	return m.Type == MediaTypeTVShow
}

// Episode 剧集
type Episode struct {
	ID            int       `json:"id" db:"id"`
	MediaID       int       `json:"media_id" db:"media_id" gorm:"uniqueIndex:idx_media_episode"`
	EpisodeNumber int       `json:"episode_number" db:"episode_number" gorm:"uniqueIndex:idx_media_episode"`
	Title         string    `json:"title" db:"title"`
	Link          string    `json:"link" db:"link"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Genre 分类标签
type Genre struct {
	ID    int    `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Slug  string `json:"slug" db:"slug" gorm:"unique"`
	Color string `json:"color" db:"color"`

	Media []*Media `json:"-" gorm:"many2many:media_genres"`
}

// EmbedSource 外部播放源（嵌入式播放器镜像站点）
type EmbedSource struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Key        string    `json:"key" db:"key" gorm:"unique"`
	BaseURL    string    `json:"base_url" db:"base_url"`
	Enabled    bool      `json:"enabled" db:"enabled"`
	Priority   int       `json:"priority" db:"priority"`
	AvgSpeedMs int       `json:"avg_speed_ms" db:"avg_speed_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
