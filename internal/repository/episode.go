package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
)

type EpisodeRepository struct {
	db *gorm.DB
}

func NewEpisodeRepository(db *gorm.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// FindByID 根据 ID 查找剧集
func (r *EpisodeRepository) FindByID(id int) (*model.Episode, error) {
	var episode model.Episode
	err := r.db.First(&episode, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &episode, nil
}

// ListByMedia 获取作品的剧集列表（按集数排序）
func (r *EpisodeRepository) ListByMedia(mediaID int) ([]*model.Episode, error) {
	var episodes []*model.Episode
	err := r.db.Where("media_id = ?", mediaID).
		Order("episode_number ASC").
		Find(&episodes).Error
	return episodes, err
}

// Create 新增剧集
func (r *EpisodeRepository) Create(episode *model.Episode) error {
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now()
	}
	return r.db.Create(episode).Error
}

// Update 更新剧集
func (r *EpisodeRepository) Update(episode *model.Episode) error {
	return r.db.Save(episode).Error
}

// Delete 删除剧集
func (r *EpisodeRepository) Delete(id int) error {
	return r.db.Delete(&model.Episode{}, id).Error
}
