package repository

import (
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add 添加收藏（重复添加直接忽略）
func (r *FavoriteRepository) Add(userID, mediaID, episodeID int) error {
	favorite := &model.Favorite{
		UserID:    userID,
		MediaID:   mediaID,
		EpisodeID: episodeID,
		CreatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error
}

// Remove 取消收藏
func (r *FavoriteRepository) Remove(userID, mediaID, episodeID int) error {
	return r.db.Where("user_id = ? AND media_id = ? AND episode_id = ?", userID, mediaID, episodeID).
		Delete(&model.Favorite{}).Error
}

// IsFavorited 检查是否已收藏
func (r *FavoriteRepository) IsFavorited(userID, mediaID, episodeID int) (bool, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).
		Where("user_id = ? AND media_id = ? AND episode_id = ?", userID, mediaID, episodeID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser 获取用户收藏列表（带关联作品和剧集）
func (r *FavoriteRepository) ListByUser(userID, limit, offset int) ([]*model.Favorite, error) {
	var favorites []*model.Favorite
	err := r.db.Preload("Media").
		Preload("Episode").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&favorites).Error
	return favorites, err
}

// CountByUser 统计用户收藏数量
func (r *FavoriteRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}
