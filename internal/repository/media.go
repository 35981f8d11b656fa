package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// MediaFilter 列表查询条件
type MediaFilter struct {
	Type      string // movie / tv_show，空表示不限
	GenreSlug string
	Keyword   string
	Limit     int
	Offset    int
}

// FindByID 根据 ID 查找（带分类和剧集）
func (r *MediaRepository) FindByID(id int) (*model.Media, error) {
	var media model.Media
	err := r.db.Preload("Genres").
		Preload("Episodes", func(db *gorm.DB) *gorm.DB {
			return db.Order("episode_number ASC")
		}).
		First(&media, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &media, nil
}

// List 按条件分页查询
func (r *MediaRepository) List(f MediaFilter) ([]*model.Media, int64, error) {
	query := r.db.Model(&model.Media{})

	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		query = query.Where("title ILIKE ? OR original_title ILIKE ?", kw, kw)
	}
	if f.GenreSlug != "" {
		query = query.Joins("JOIN media_genres mg ON mg.media_id = media.id").
			Joins("JOIN genres g ON g.id = mg.genre_id").
			Where("g.slug = ?", f.GenreSlug)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []*model.Media
	err := query.Preload("Genres").
		Order("media.updated_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&items).Error
	return items, total, err
}

// Create 新增条目
func (r *MediaRepository) Create(media *model.Media) error {
	now := time.Now()
	if media.CreatedAt.IsZero() {
		media.CreatedAt = now
	}
	media.UpdatedAt = now
	return r.db.Create(media).Error
}

// Update 更新条目（关联分类整体替换）
func (r *MediaRepository) Update(media *model.Media) error {
	media.UpdatedAt = time.Now()
	if err := r.db.Save(media).Error; err != nil {
		return err
	}
	if media.Genres != nil {
		return r.db.Model(media).Association("Genres").Replace(media.Genres)
	}
	return nil
}

// Delete 删除条目
func (r *MediaRepository) Delete(id int) error {
	return r.db.Delete(&model.Media{}, id).Error
}

// Count 条目总数
func (r *MediaRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Media{}).Count(&count).Error
	return count, err
}

// RatingAggregate 评分聚合结果
type RatingAggregate struct {
	Avg   float64
	Count int
}

// AggregateRating 实时计算条目的平均分和评分人数
func (r *MediaRepository) AggregateRating(mediaID int) (*RatingAggregate, error) {
	var agg struct {
		Avg   *float64
		Count int64
	}
	err := r.db.Model(&model.Rating{}).
		Select("AVG(score) AS avg, COUNT(*) AS count").
		Where("media_id = ?", mediaID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	result := &RatingAggregate{Count: int(agg.Count)}
	if agg.Avg != nil {
		result.Avg = *agg.Avg
	}
	return result, nil
}

// RefreshRatingAggregate 把聚合结果回写到条目列
func (r *MediaRepository) RefreshRatingAggregate(mediaID int) (*RatingAggregate, error) {
	agg, err := r.AggregateRating(mediaID)
	if err != nil {
		return nil, err
	}
	err = r.db.Model(&model.Media{}).Where("id = ?", mediaID).
		Updates(map[string]interface{}{"rating_avg": agg.Avg, "rating_count": agg.Count}).Error
	return agg, err
}

// FindSimilar 相似条目：优先按向量距离，缺向量时退化为同分类
func (r *MediaRepository) FindSimilar(mediaID, limit int) ([]*model.Media, error) {
	var media model.Media
	err := r.db.First(&media, mediaID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []*model.Media
	if media.Embedding != nil {
		err = r.db.Where("id != ? AND embedding IS NOT NULL", mediaID).
			Order(clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{*media.Embedding}}).
			Limit(limit).
			Find(&items).Error
		if err != nil || len(items) > 0 {
			return items, err
		}
	}

	// 同分类回退
	err = r.db.Distinct("media.*").
		Joins("JOIN media_genres mg ON mg.media_id = media.id").
		Where("mg.genre_id IN (?) AND media.id != ?",
			r.db.Table("media_genres").Select("genre_id").Where("media_id = ?", mediaID),
			mediaID).
		Order("media.rating_count DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
