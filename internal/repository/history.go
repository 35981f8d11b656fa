package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert 更新或插入观看记录（同一 (用户, 作品, 剧集) 只保留最新进度，后写覆盖）
func (r *HistoryRepository) Upsert(h *model.WatchHistory) error {
	h.Normalize()
	if h.WatchedAt.IsZero() {
		h.WatchedAt = time.Now()
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_id"}, {Name: "episode_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "duration", "watched_at"}),
	}).Create(h).Error
}

// Find 查找 (用户, 作品, 剧集) 的续播点
func (r *HistoryRepository) Find(userID, mediaID, episodeID int) (*model.WatchHistory, error) {
	var history model.WatchHistory
	err := r.db.Where("user_id = ? AND media_id = ? AND episode_id = ?", userID, mediaID, episodeID).
		First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &history, nil
}

// ListByUser 获取用户观看历史（带关联作品和剧集）
func (r *HistoryRepository) ListByUser(userID, limit, offset int) ([]*model.WatchHistory, error) {
	var histories []*model.WatchHistory
	err := r.db.Preload("Media").
		Preload("Episode").
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&histories).Error
	return histories, err
}

// GetAfter 获取指定时间之后的记录（用于多端同步）
func (r *HistoryRepository) GetAfter(userID int, after time.Time) ([]*model.WatchHistory, error) {
	var histories []*model.WatchHistory
	err := r.db.Where("user_id = ? AND watched_at > ?", userID, after).
		Order("watched_at DESC").
		Find(&histories).Error
	return histories, err
}

// CountByUser 统计用户观看历史数量
func (r *HistoryRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.WatchHistory{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// Delete 删除观看记录
func (r *HistoryRepository) Delete(userID, id int) error {
	return r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&model.WatchHistory{}).Error
}
