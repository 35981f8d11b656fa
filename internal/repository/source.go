package repository

import (
	"errors"
	"time"

	"github.com/user/streambox/internal/model"
	"gorm.io/gorm"
)

// SourceRepository 播放源配置仓库
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository 创建播放源仓库
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create 创建播放源
func (r *SourceRepository) Create(source *model.EmbedSource) error {
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now()
	}
	return r.db.Create(source).Error
}

// Update 更新播放源
func (r *SourceRepository) Update(source *model.EmbedSource) error {
	return r.db.Save(source).Error
}

// Delete 物理删除播放源
func (r *SourceRepository) Delete(id int) error {
	return r.db.Delete(&model.EmbedSource{}, id).Error
}

// FindByKey 根据 Key 查找播放源
func (r *SourceRepository) FindByKey(key string) (*model.EmbedSource, error) {
	var source model.EmbedSource
	err := r.db.Where("key = ?", key).First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &source, nil
}

// ListEnabled 获取所有启用的播放源（优先级高的在前）
func (r *SourceRepository) ListEnabled() ([]*model.EmbedSource, error) {
	var sources []*model.EmbedSource
	err := r.db.Where("enabled = ?", true).
		Order("priority DESC, id ASC").
		Find(&sources).Error
	return sources, err
}

// ListAll 获取所有播放源
func (r *SourceRepository) ListAll() ([]*model.EmbedSource, error) {
	var sources []*model.EmbedSource
	err := r.db.Order("id ASC").Find(&sources).Error
	return sources, err
}

// UpdateSpeed 回写探测耗时
func (r *SourceRepository) UpdateSpeed(id, avgSpeedMs int) error {
	return r.db.Model(&model.EmbedSource{}).Where("id = ?", id).
		Update("avg_speed_ms", avgSpeedMs).Error
}
