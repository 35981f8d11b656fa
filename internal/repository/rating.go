package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert 写入或更新评分（同一 (用户, 作品, 剧集) 只保留一条）
func (r *RatingRepository) Upsert(rating *model.Rating) error {
	now := time.Now()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_id"}, {Name: "episode_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(rating).Error
}

// Delete 删除评分
func (r *RatingRepository) Delete(userID, mediaID, episodeID int) error {
	return r.db.Where("user_id = ? AND media_id = ? AND episode_id = ?", userID, mediaID, episodeID).
		Delete(&model.Rating{}).Error
}

// Find 查找用户对某个作品/剧集的评分
func (r *RatingRepository) Find(userID, mediaID, episodeID int) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.Where("user_id = ? AND media_id = ? AND episode_id = ?", userID, mediaID, episodeID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rating, nil
}

// ListByUser 获取用户评分列表（带关联作品和剧集）
func (r *RatingRepository) ListByUser(userID, limit, offset int) ([]*model.Rating, error) {
	var ratings []*model.Rating
	err := r.db.Preload("Media").
		Preload("Episode").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&ratings).Error
	return ratings, err
}

// CountByUser 统计用户评分数量
func (r *RatingRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.Rating{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}
