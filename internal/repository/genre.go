package repository

import (
	"errors"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
)

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// ListAll 获取全部分类
func (r *GenreRepository) ListAll() ([]*model.Genre, error) {
	var genres []*model.Genre
	err := r.db.Order("name ASC").Find(&genres).Error
	return genres, err
}

// FindBySlug 根据 slug 查找分类
func (r *GenreRepository) FindBySlug(slug string) (*model.Genre, error) {
	var genre model.Genre
	err := r.db.Where("slug = ?", slug).First(&genre).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &genre, nil
}

// FindByIDs 批量查找分类
func (r *GenreRepository) FindByIDs(ids []int) ([]*model.Genre, error) {
	var genres []*model.Genre
	err := r.db.Where("id IN ?", ids).Find(&genres).Error
	return genres, err
}

// Create 新增分类
func (r *GenreRepository) Create(genre *model.Genre) error {
	return r.db.Create(genre).Error
}

// Update 更新分类
func (r *GenreRepository) Update(genre *model.Genre) error {
	return r.db.Save(genre).Error
}

// Delete 删除分类（同时清理关联关系）
func (r *GenreRepository) Delete(id int) error {
	if err := r.db.Exec("DELETE FROM media_genres WHERE genre_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.Delete(&model.Genre{}, id).Error
}
