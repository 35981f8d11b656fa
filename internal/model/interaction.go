package model

import (
	"time"
)

// 评分采用 1-10 整数分制
const (
	RatingMin = 1
	RatingMax = 10
)

// Favorite 收藏
// EpisodeID 为 0 表示收藏整部作品；唯一索引保证同一 (用户, 作品, 剧集) 只有一条
type Favorite struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_favorite"`
	MediaID   int       `json:"media_id" db:"media_id" gorm:"uniqueIndex:idx_user_favorite"`
	EpisodeID int       `json:"episode_id" db:"episode_id" gorm:"uniqueIndex:idx_user_favorite"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Media   *Media   `json:"media,omitempty"`   // 关联查询时填充
	Episode *Episode `json:"episode,omitempty"` // 关联查询时填充
}

// Rating 评分
type Rating struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_rating"`
	MediaID   int       `json:"media_id" db:"media_id" gorm:"uniqueIndex:idx_user_rating"`
	EpisodeID int       `json:"episode_id" db:"episode_id" gorm:"uniqueIndex:idx_user_rating"`
	Score     int       `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Media   *Media   `json:"media,omitempty"`
	Episode *Episode `json:"episode,omitempty"`
}

// ValidScore 检查评分是否在合法区间
func ValidScore(score int) bool {
	return score >= RatingMin && score <= RatingMax
}

// WatchHistory 观看历史（每个 (用户, 作品, 剧集) 只保留最新进度）
type WatchHistory struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_history"`
	MediaID   int       `json:"media_id" db:"media_id" gorm:"uniqueIndex:idx_user_history"`
	EpisodeID int       `json:"episode_id" db:"episode_id" gorm:"uniqueIndex:idx_user_history"`
	Progress  float64   `json:"progress" db:"progress"`
	Duration  float64   `json:"duration" db:"duration"`
	WatchedAt time.Time `json:"watched_at" db:"watched_at" gorm:"index"`

	Media   *Media   `json:"media,omitempty"`
	Episode *Episode `json:"episode,omitempty"`
}

// Normalize 修正进度，保证 0 <= progress <= duration
func (h *WatchHistory) Normalize() {
	if h.Duration < 0 {
		h.Duration = 0
	}
	if h.Progress < 0 {
		h.Progress = 0
	}
	if h.Progress > h.Duration {
		h.Progress = h.Duration
	}
}
